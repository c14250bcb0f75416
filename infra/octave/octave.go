// Package octave drives a GNU Octave process over its standard streams
// and serves curve fits to the cost estimator.
//
// Each request is one expression line followed by a quoted sentinel
// string. Octave echoes the sentinel as "ans = END OF COMMAND", which
// marks the end of the response.
package octave

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/kilianp07/sweep/core/estimator"
	"github.com/kilianp07/sweep/core/logger"
)

// Sentinel terminates every response.
const Sentinel = "END OF COMMAND"

// DefaultPath is the executable looked up on PATH.
const DefaultPath = "octave"

var (
	endLine    = regexp.MustCompile(`^ans = ` + Sentinel + `$`)
	vectorHead = regexp.MustCompile(`^ans =\s*$`)
	scalarLine = regexp.MustCompile(`^ans = (\S+)$`)
)

// ErrNoResult is returned when a response carried no value.
var ErrNoResult = errors.New("octave returned no value")

// Result is a parsed response: a scalar or a vector.
type Result struct {
	Values []float64
	Vector bool
}

// Scalar returns the single value of a scalar result.
func (r Result) Scalar() (float64, error) {
	if len(r.Values) != 1 {
		return 0, fmt.Errorf("%w: got %d values", ErrNoResult, len(r.Values))
	}
	return r.Values[0], nil
}

// Session is one interpreter conversation. Calls are serialized.
type Session struct {
	mu     sync.Mutex
	w      io.Writer
	r      *bufio.Reader
	closer func() error
	log    logger.Logger
	closed bool
}

var _ estimator.Fitter = (*Session)(nil)

// NewSession talks to an interpreter reading commands from w and writing
// answers to r. Output precision is raised before returning.
func NewSession(r io.Reader, w io.Writer, log logger.Logger) (*Session, error) {
	s := &Session{w: w, r: bufio.NewReader(r), log: log}
	if _, err := s.Eval("format long"); err != nil && !errors.Is(err, ErrNoResult) {
		return nil, err
	}
	return s, nil
}

// Start launches the interpreter at path. The process is killed when ctx
// is done.
func Start(ctx context.Context, path string, log logger.Logger) (*Session, error) {
	if path == "" {
		path = DefaultPath
	}
	cmd := exec.CommandContext(ctx, path, "--quiet", "--no-gui", "--no-window-system")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	s, err := NewSession(stdout, stdin, log)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	s.closer = func() error {
		_ = stdin.Close()
		return cmd.Wait()
	}
	return s, nil
}

// Eval sends one expression and parses its answer.
func (s *Session) Eval(expr string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Result{}, errors.New("octave session closed")
	}
	s.log.Debugf("octave> %s", expr)
	if _, err := fmt.Fprintf(s.w, "%s\n%q\n", expr, Sentinel); err != nil {
		return Result{}, fmt.Errorf("octave write: %w", err)
	}
	var lines []string
	for {
		line, err := s.r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if endLine.MatchString(line) {
			break
		}
		if line != "" {
			lines = append(lines, line)
		}
		if err != nil {
			return Result{}, fmt.Errorf("octave read: %w", err)
		}
	}
	res := Parse(lines)
	if len(res.Values) == 0 {
		return res, ErrNoResult
	}
	return res, nil
}

// Parse interprets response lines. "ans = x" is a scalar; "ans =" opens
// a vector whose elements follow on the next lines. Lines that are not
// numbers, such as column headers, are skipped.
func Parse(lines []string) Result {
	var res Result
	for _, line := range lines {
		switch {
		case vectorHead.MatchString(line):
			res = Result{Vector: true}
		case scalarLine.MatchString(line):
			m := scalarLine.FindStringSubmatch(line)
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				res = Result{Values: []float64{f}}
			}
		case res.Vector:
			res.Values = append(res.Values, numbers(line)...)
		}
	}
	return res
}

func numbers(line string) []float64 {
	fields := strings.Fields(line)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}

func vector(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Poly evaluates at the polynomial of degree len(xs)-1 through the points.
func (s *Session) Poly(xs, ys []float64, at float64) (float64, error) {
	res, err := s.Eval(fmt.Sprintf("polyval(polyfit(%s, %s, %d), %s)",
		vector(xs), vector(ys), len(xs)-1, strconv.FormatFloat(at, 'g', -1, 64)))
	if err != nil {
		return 0, err
	}
	return res.Scalar()
}

// Spline evaluates the interpreter's not-a-knot spline through the
// points at at.
func (s *Session) Spline(xs, ys []float64, at float64) (float64, error) {
	res, err := s.Eval(fmt.Sprintf("spline(%s, %s, %s)",
		vector(xs), vector(ys), strconv.FormatFloat(at, 'g', -1, 64)))
	if err != nil {
		return 0, err
	}
	return res.Scalar()
}

// Close asks the interpreter to quit and waits for it.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_, err := io.WriteString(s.w, "quit\n")
	if s.closer != nil {
		if cerr := s.closer(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
