package octave

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kilianp07/sweep/core/estimator"
	"github.com/kilianp07/sweep/infra/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fake struct {
	mu    sync.Mutex
	exprs []string
	done  chan struct{}
}

func (f *fake) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.exprs...)
}

// startFake runs an interpreter stand-in answering each expression with
// respond(expr).
func startFake(t *testing.T, respond func(expr string) []string) (*Session, *fake) {
	t.Helper()
	cmdR, cmdW := io.Pipe()
	ansR, ansW := io.Pipe()
	f := &fake{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer ansW.Close()
		sc := bufio.NewScanner(cmdR)
		for sc.Scan() {
			line := sc.Text()
			switch line {
			case `"` + Sentinel + `"`:
				fmt.Fprintln(ansW, "ans = "+Sentinel)
			case "quit":
				return
			default:
				f.mu.Lock()
				f.exprs = append(f.exprs, line)
				f.mu.Unlock()
				for _, l := range respond(line) {
					fmt.Fprintln(ansW, l)
				}
			}
		}
	}()
	s, err := NewSession(ansR, cmdW, logger.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = cmdW.Close()
		<-f.done
	})
	return s, f
}

func TestParse(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		want  Result
	}{
		{"integer", []string{"ans = 3"}, Result{Values: []float64{3}}},
		{"float", []string{"ans = 14.3050000000000"}, Result{Values: []float64{14.305}}},
		{"exponent", []string{"ans = 1.5e-03"}, Result{Values: []float64{0.0015}}},
		{"vector", []string{"ans =", "   1   2   3", "   4"}, Result{Values: []float64{1, 2, 3, 4}, Vector: true}},
		{"columns header", []string{"ans =", " Columns 1 through 2:", "   0.5   1.5"}, Result{Values: []float64{0.5, 1.5}, Vector: true}},
		{"noise", []string{"warning: something"}, Result{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.lines)
			assert.Equal(t, tc.want.Vector, got.Vector)
			assert.InDeltaSlice(t, tc.want.Values, got.Values, 1e-12)
		})
	}
}

func TestSessionFits(t *testing.T) {
	s, f := startFake(t, func(expr string) []string {
		switch {
		case strings.HasPrefix(expr, "polyval"):
			return []string{"ans = 5.00000000000000"}
		case strings.HasPrefix(expr, "spline"):
			return []string{"ans = 15"}
		case strings.HasPrefix(expr, "polyfit"):
			return []string{"ans =", "", "   1.0000   0.0000", ""}
		}
		return nil
	})

	v, err := s.Poly([]float64{0, 1, 2}, []float64{0, 1, 2}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 5, v, 1e-12)

	v, err = s.Spline([]float64{0, 1, 2, 3, 4}, []float64{0, 1, 2, 4, 8}, 5)
	require.NoError(t, err)
	assert.InDelta(t, 15, v, 1e-12)

	res, err := s.Eval("polyfit([0 1], [0 1], 1)")
	require.NoError(t, err)
	assert.True(t, res.Vector)
	assert.Len(t, res.Values, 2)
	_, err = res.Scalar()
	assert.ErrorIs(t, err, ErrNoResult)

	assert.Equal(t, []string{
		"format long",
		"polyval(polyfit([0 1 2], [0 1 2], 2), 3)",
		"spline([0 1 2 3 4], [0 1 2 4 8], 5)",
		"polyfit([0 1], [0 1], 1)",
	}, f.seen())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err = s.Eval("1")
	assert.Error(t, err)
}

func TestSessionServesEstimator(t *testing.T) {
	s, _ := startFake(t, func(expr string) []string {
		if strings.HasPrefix(expr, "spline") {
			return []string{"ans = 5"}
		}
		return nil
	})
	defer func() { _ = s.Close() }()

	next, err := estimator.New(s, estimator.Linear).Next([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 5, next, 1e-12)
}

func TestSessionNoResult(t *testing.T) {
	s, _ := startFake(t, func(string) []string { return []string{"garbage"} })
	defer func() { _ = s.Close() }()
	_, err := s.Poly([]float64{0, 1}, []float64{0, 1}, 2)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestStartLive(t *testing.T) {
	if _, err := exec.LookPath(DefaultPath); err != nil {
		t.Skip("octave not installed")
	}
	s, err := Start(t.Context(), "", logger.NopLogger{})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	v, err := s.Poly([]float64{1, 2, 3}, []float64{1, 4, 9}, 4)
	require.NoError(t, err)
	assert.InDelta(t, 16, v, 1e-6)
}
