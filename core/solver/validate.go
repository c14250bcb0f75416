package solver

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

const (
	failureMarker    = "Command execution failed:"
	parseErrorMarker = "(Parse Error) --  Invalid domain specification."
)

// ValidationError reports a run whose captured output failed the
// completion checks, or a solver that could not be launched.
type ValidationError struct {
	// Run is the fingerprint of the failed run, when known.
	Run    string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := "test execution failed"
	if e.Run != "" {
		msg += fmt.Sprintf(" for %s", e.Run)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate judges captured output by its markers alone: a line starting
// with the success marker must be present, and neither an execution
// failure line nor a domain parse error may appear.
func Validate(output []byte) error {
	success := false
	sc := bufio.NewScanner(bytes.NewReader(output))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, SuccessMarker):
			success = true
		case strings.HasPrefix(line, failureMarker):
			return &ValidationError{Reason: "solver reported " + strings.TrimSpace(line)}
		case strings.Contains(line, parseErrorMarker):
			return &ValidationError{Reason: "invalid domain specification"}
		}
	}
	if err := sc.Err(); err != nil {
		return &ValidationError{Reason: "unreadable output", Err: err}
	}
	if !success {
		return &ValidationError{Reason: "success marker missing"}
	}
	return nil
}
