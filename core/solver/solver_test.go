package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/sweep/core/model"
	"github.com/kilianp07/sweep/infra/logger"
)

type fakeExecutor struct {
	outputs []string
	scripts []string
	code    int
	err     error
}

func (f *fakeExecutor) Execute(_ context.Context, dir, name string, out io.Writer) (int, error) {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return -1, err
	}
	f.scripts = append(f.scripts, string(b))
	if f.err != nil {
		return -1, f.err
	}
	n := len(f.scripts) - 1
	if n < len(f.outputs) {
		fmt.Fprint(out, f.outputs[n])
	}
	return f.code, nil
}

func instance() model.Instance {
	return model.MustInstance(
		model.P("reward_spec", model.StringValue("AllTrue")),
		model.P("action_spec", model.StringValue("FiftyFifty")),
		model.P("n", model.IntValue(2)),
	)
}

func TestBuildScriptValItPLTL(t *testing.T) {
	p, err := Parameters(model.NewConfig("PLTL", "minimise", ValIt, ""), instance())
	require.NoError(t, err)
	s, err := BuildScript(p, false)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(s), "\n")
	assert.Equal(t, "startStateRequired(1)", lines[0])
	assert.Equal(t, "loadWorld('test.world')", lines[1])
	assert.Contains(t, s, "preprocess('mPltl')\nstopTimer\nstopCPUtimer\n'preprocessing time: ' readTimer\n")
	assert.Contains(t, s, "valIt(0.95, 0.05)\niterationCount\nlongestLabel\n")
	assert.NotContains(t, s, "monitorMemory")
	assert.Equal(t, []string{"'stats run successful'", "quit"}, lines[len(lines)-2:])
}

func TestBuildScriptSpuddPasses(t *testing.T) {
	p, err := Parameters(model.NewConfig("PLTL", "auto-constrain", Spudd, ""), instance())
	require.NoError(t, err)
	fast, err := BuildScript(p, false)
	require.NoError(t, err)
	assert.Contains(t, fast, "PLTLvarExpand\nstopTimer\nstopCPUtimer\n'NMRDP->MDP conversion time: ' readTimer\n")
	assert.Contains(t, fast, "autoConstrain\nspudd(0.95, 0.05)\n'delta-history: ' spuddDeltaHistory\n")
	assert.NotContains(t, fast, "startStateRequired")

	slow, err := BuildScript(p, true)
	require.NoError(t, err)
	assert.Contains(t, slow, "monitorSpuddPolicyChanges='true'")
	assert.Contains(t, slow, "'peak memory usage: ' peakMemoryUsage")
	assert.NotContains(t, slow, "delta-history")
}

func TestBuildScriptUnsupported(t *testing.T) {
	tests := []model.Config{
		model.NewConfig("FLTL", "none", Spudd, ""),
		model.NewConfig("PLTL", "minimise", Spudd, ""),
		model.NewConfig("PLTL", "none", "simplex", ""),
	}
	for _, cfg := range tests {
		p, err := Parameters(cfg, instance())
		require.NoError(t, err)
		_, err = BuildScript(p, false)
		var cerr *model.ConfigurationError
		assert.True(t, errors.As(err, &cerr), cfg.Identity())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		out  string
		ok   bool
	}{
		{"success", "Algorithm execution time: 1.0\nstats run successful\n", true},
		{"missing marker", "Algorithm execution time: 1.0\n", false},
		{"marker not at line start", "echo stats run successful\n", false},
		{"execution failure", "stats run successful\nCommand execution failed: boom\n", false},
		{"parse error", "x (Parse Error) --  Invalid domain specification. y\nstats run successful\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.out))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestSolverRunRecordLayout(t *testing.T) {
	exec := &fakeExecutor{outputs: []string{"stats run successful\n", "policy-change-history: 0110\n"}}
	s := New(exec, t.TempDir(), logger.NopLogger{})
	var buf bytes.Buffer
	err := s.Run(context.Background(), model.NewConfig("PLTL", "none", Spudd, ""), instance(), &buf)
	require.NoError(t, err)
	require.Len(t, exec.scripts, 2)

	out := buf.String()
	order := []string{BannerCommandLine, BannerDomain, BannerResults, "stats run successful", "policy-change-history", BannerSlowScript, BannerCommandScript}
	last := -1
	for _, marker := range order {
		i := strings.Index(out, marker)
		require.Greater(t, i, last, marker)
		last = i
	}
	assert.Contains(t, out, "'language=PLTL' 'reward_spec=AllTrue' 'action_spec=FiftyFifty' 'n=2' 'preprocessing=none' 'algorithm=spudd'\n")
	assert.NoError(t, Validate(buf.Bytes()))
}

func TestSolverRunLaunchFailure(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exec: not found")}
	s := New(exec, t.TempDir(), logger.NopLogger{})
	err := s.Run(context.Background(), model.NewConfig("FLTL", "none", PolIt, ""), instance(), io.Discard)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestSolverRunConfigurationError(t *testing.T) {
	exec := &fakeExecutor{}
	s := New(exec, t.TempDir(), logger.NopLogger{})
	err := s.Run(context.Background(), model.NewConfig("FLTL", "none", Spudd, ""), instance(), io.Discard)
	var cerr *model.ConfigurationError
	assert.True(t, errors.As(err, &cerr))
	assert.Empty(t, exec.scripts)
}

func TestExecExecutor(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.cmd"), []byte("hello\n"), 0o644))

	var buf bytes.Buffer
	code, err := NewExecExecutor("/bin/sh", 0, "-c", `cat "$0"; exit 3`).Execute(context.Background(), dir, "test.cmd", &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, "hello\n", buf.String())

	_, err = NewExecExecutor("/nonexistent/solver-binary", 0).Execute(context.Background(), dir, "test.cmd", &buf)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewExecExecutor("/bin/sh", 0, "-c", "sleep 5").Execute(ctx, dir, "test.cmd", &buf)
	assert.ErrorIs(t, err, context.Canceled)
}
