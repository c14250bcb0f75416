// Package solver drives one external solver run: it renders the domain and
// command script for an instance, executes the solver and records the run
// in the banner-delimited layout stored in the cache.
package solver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kilianp07/sweep/core/logger"
	"github.com/kilianp07/sweep/core/model"
	"github.com/kilianp07/sweep/core/problem"
)

// Banners delimiting the sections of a run record.
const (
	BannerCommandLine   = "----------command line----------"
	BannerDomain        = "----------domain specification----------"
	BannerResults       = "----------results----------"
	BannerSlowScript    = "----------slow command script----------"
	BannerCommandScript = "----------command script----------"
)

const (
	worldFile      = "test.world"
	scriptFile     = "test.cmd"
	slowScriptFile = "test-slow.cmd"
)

// Solver prepares and runs solver invocations inside WorkDir.
type Solver struct {
	exec    Executor
	workDir string
	log     logger.Logger
}

// New returns a Solver using exec to run scripts in workDir.
func New(exec Executor, workDir string, log logger.Logger) *Solver {
	if workDir == "" {
		workDir = "."
	}
	return &Solver{exec: exec, workDir: workDir, log: log}
}

// Parameters merges cfg into inst and applies the global defaults.
func Parameters(cfg model.Config, inst model.Instance) (*model.Parameters, error) {
	p := model.NewParameters(inst)
	p.Set("language", model.StringValue(cfg.Language))
	p.Set("preprocessing", model.StringValue(cfg.Preprocessing))
	p.Set("algorithm", model.StringValue(cfg.Algorithm))
	if err := p.ApplyDefaults(); err != nil {
		return nil, err
	}
	return p, nil
}

// Prepare renders the domain and the command scripts for (cfg, inst)
// without running anything. It surfaces every ConfigurationError the run
// would hit.
func Prepare(cfg model.Config, inst model.Instance) (world, fast, slow string, err error) {
	p, err := Parameters(cfg, inst)
	if err != nil {
		return "", "", "", err
	}
	if world, err = problem.World(p); err != nil {
		return "", "", "", err
	}
	if fast, err = BuildScript(p, cfg.Algorithm != Spudd); err != nil {
		return "", "", "", err
	}
	if cfg.Algorithm == Spudd {
		if slow, err = BuildScript(p, true); err != nil {
			return "", "", "", err
		}
	}
	return world, fast, slow, nil
}

// Run executes the solver for (cfg, inst) and writes the complete run
// record to out. Symbolic runs get a second pass with slow statistics
// appended to the same results section. Launch failures are returned as
// *ValidationError; cancellation returns the context error.
func (s *Solver) Run(ctx context.Context, cfg model.Config, inst model.Instance, out io.Writer) error {
	world, fast, slow, err := Prepare(cfg, inst)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.workDir, 0o755); err != nil {
		return fmt.Errorf("solver work dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.workDir, worldFile), []byte(world), 0o644); err != nil {
		return fmt.Errorf("write world: %w", err)
	}

	fmt.Fprintln(out, BannerCommandLine)
	fmt.Fprintf(out, "'language=%s' %s 'preprocessing=%s' 'algorithm=%s'\n", cfg.Language, inst.Args(), cfg.Preprocessing, cfg.Algorithm)
	fmt.Fprintln(out, BannerDomain)
	fmt.Fprint(out, world)
	fmt.Fprintln(out, BannerResults)

	if err := s.execute(ctx, scriptFile, fast, out); err != nil {
		return err
	}
	if slow != "" {
		if err := s.execute(ctx, slowScriptFile, slow, out); err != nil {
			return err
		}
		fmt.Fprintln(out, BannerSlowScript)
		fmt.Fprint(out, slow)
	}
	fmt.Fprintln(out, BannerCommandScript)
	_, err = fmt.Fprint(out, fast)
	return err
}

func (s *Solver) execute(ctx context.Context, name, script string, out io.Writer) error {
	if err := os.WriteFile(filepath.Join(s.workDir, name), []byte(script), 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	code, err := s.exec.Execute(ctx, s.workDir, name, out)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return &ValidationError{Reason: "solver timed out", Err: err}
		}
		return &ValidationError{Reason: "solver could not be launched", Err: err}
	}
	if code != 0 {
		s.log.Warnf("solver returned non-zero status %d, ignoring", code)
	}
	return nil
}
