package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kilianp07/sweep/config"
	"github.com/kilianp07/sweep/core/cache"
	"github.com/kilianp07/sweep/core/campaignfile"
	"github.com/kilianp07/sweep/core/estimator"
	"github.com/kilianp07/sweep/core/ledger"
	coremetrics "github.com/kilianp07/sweep/core/metrics"
	"github.com/kilianp07/sweep/core/model"
	"github.com/kilianp07/sweep/core/runner"
	"github.com/kilianp07/sweep/core/scheduler"
	"github.com/kilianp07/sweep/core/solver"
	"github.com/kilianp07/sweep/core/table"
	"github.com/kilianp07/sweep/infra/logger"
	"github.com/kilianp07/sweep/infra/metrics"
	"github.com/kilianp07/sweep/infra/mqtt"
	"github.com/kilianp07/sweep/infra/octave"
	"github.com/kilianp07/sweep/internal/eventbus"
	"github.com/kilianp07/sweep/pkg/export"
)

// Service wires the cache, the solver and the scheduler for one
// invocation of the tool.
type Service struct {
	cfg     *config.Config
	session string
	log     logger.Logger
	store   *cache.Store
	runner  *runner.Runner
	exec    solver.Executor
	fitter  func(ctx context.Context) (estimator.Fitter, func() error, error)
	notify  runner.NotifyFunc
}

// Option customises a Service.
type Option func(*Service)

// WithExecutor replaces the subprocess executor built from the solver
// section.
func WithExecutor(e solver.Executor) Option { return func(s *Service) { s.exec = e } }

// WithSession fixes the session id instead of generating one.
func WithSession(id string) Option { return func(s *Service) { s.session = id } }

// WithNotify replaces signal.NotifyContext for solver runs.
func WithNotify(fn runner.NotifyFunc) Option { return func(s *Service) { s.notify = fn } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	s := &Service{cfg: cfg, session: uuid.NewString(), log: logger.New("service")}
	for _, o := range opts {
		o(s)
	}
	if s.exec == nil {
		s.exec = solver.NewExecExecutor(cfg.Solver.Command, cfg.Solver.Timeout(), cfg.Solver.Args...)
	}
	store, err := cache.NewStore(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}
	s.store = store
	sv := solver.New(s.exec, cfg.Solver.WorkDir, logger.New("solver"))
	var ropts []runner.Option
	if s.notify != nil {
		ropts = append(ropts, runner.WithNotify(s.notify))
	}
	s.runner = runner.New(store, sv, cfg.Options(), logger.New("runner"), ropts...)
	s.fitter = s.startFitter
	return s, nil
}

// Session returns the id stamped on ledger records and events.
func (s *Service) Session() string { return s.session }

// Runner returns the run operation shared by every command.
func (s *Service) Runner() *runner.Runner { return s.runner }

func (s *Service) startFitter(ctx context.Context) (estimator.Fitter, func() error, error) {
	if s.cfg.Estimator.Backend != config.BackendOctave {
		return estimator.Native{}, func() error { return nil }, nil
	}
	sess, err := octave.Start(ctx, s.cfg.Estimator.OctavePath, logger.New("octave"))
	if err != nil {
		return nil, nil, fmt.Errorf("octave: %w", err)
	}
	return sess, sess.Close, nil
}

// Campaigns builds one campaign per problem and method, in file order, and
// checks every instance can be prepared before anything runs.
func (s *Service) Campaigns(f *campaignfile.File, fit estimator.Fitter) ([]*scheduler.Campaign, error) {
	var out []*scheduler.Campaign
	for _, p := range f.Problems {
		for _, cfg := range f.Configs() {
			c, err := scheduler.NewCampaign(p.Params, cfg, estimator.New(fit, p.Growth))
			if err != nil {
				return nil, fmt.Errorf("campaign %s: %w", p.Name, err)
			}
			out = append(out, c)
		}
	}
	err := scheduler.Validate(out, func(cfg model.Config, inst model.Instance) error {
		_, _, _, err := solver.Prepare(cfg, inst)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Pending is the cache state of one problem and method pair.
type Pending struct {
	Problem string
	Method  string
	Total   int
	Cached  int
	Missing []model.Instance
}

// Pending reports, per problem and method, which instances have no cached
// record yet.
func (s *Service) Pending(f *campaignfile.File) ([]Pending, error) {
	var out []Pending
	for _, p := range f.Problems {
		insts := model.Expand(p.Params).Instances()
		for _, cfg := range f.Configs() {
			row := Pending{Problem: p.Params.Description(), Method: cfg.String(), Total: len(insts)}
			for _, inst := range insts {
				ok, err := s.store.Cached(cfg, inst)
				if err != nil {
					return nil, err
				}
				if ok {
					row.Cached++
				} else {
					row.Missing = append(row.Missing, inst)
				}
			}
			out = append(out, row)
		}
	}
	return out, nil
}

// Run drives every campaign of f with priority_run. Run events feed the
// configured metrics sinks, the optional MQTT notifier and the ledger.
func (s *Service) Run(ctx context.Context, f *campaignfile.File) (scheduler.Summary, error) {
	fit, closeFit, err := s.fitter(ctx)
	if err != nil {
		return scheduler.Summary{}, err
	}
	defer func() {
		if err := closeFit(); err != nil {
			s.log.Warnf("estimator close: %v", err)
		}
	}()

	campaigns, err := s.Campaigns(f, fit)
	if err != nil {
		return scheduler.Summary{}, err
	}

	store, err := ledger.Open(s.cfg.Ledger.Backend, s.cfg.Ledger.Path)
	if err != nil {
		return scheduler.Summary{}, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			s.log.Errorf("ledger close: %v", err)
		}
	}()

	bus := eventbus.New(eventbus.WithBuffer(256))
	obsCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	var done []<-chan struct{}
	var closers []func()
	serverDone := closedChan()
	defer func() {
		// Closing the bus lets subscribers drain what is buffered.
		bus.Close()
		for _, d := range done {
			<-d
		}
		cancel()
		<-serverDone
		if n := bus.Dropped(); n > 0 {
			s.log.Warnf("%d run events were not delivered to observers", n)
		}
		for _, c := range closers {
			c()
		}
	}()

	sink, err := coremetrics.NewSink(s.cfg.Metrics.Sinks)
	if err != nil {
		return scheduler.Summary{}, fmt.Errorf("metrics: %w", err)
	}
	closers = append(closers, func() { closeSink(sink) })
	done = append(done, metrics.StartEventCollector(obsCtx, bus, sink, logger.New("metrics")))

	if s.cfg.MetricsAddr != "" {
		serverDone = StartPromServer(obsCtx, s.cfg.MetricsAddr, s.log)
	}

	if s.cfg.Notify.MQTT.Enabled() {
		client, err := mqtt.NewPahoClient(s.cfg.Notify.MQTT)
		if err != nil {
			return scheduler.Summary{}, fmt.Errorf("mqtt client: %w", err)
		}
		closers = append(closers, client.Disconnect)
		n := mqtt.NewNotifier(client, s.cfg.Notify.MQTT.Topic, logger.New("notify"))
		done = append(done, n.Start(obsCtx, bus))
	}

	sched := scheduler.New(s.runner, logger.New("scheduler"),
		scheduler.WithCostMeasure(s.cfg.Solver.CostMeasure),
		scheduler.WithEventBus(bus),
		scheduler.WithLedger(store, s.session),
	)
	sum, err := sched.PriorityRun(ctx, campaigns)
	s.log.Infof("session %s: %d runs, %d cached, %d unknown, %d/%d campaigns finished",
		s.session, sum.Runs, sum.Cached, sum.Unknown, sum.Finished, len(campaigns))
	return sum, err
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func closeSink(sink coremetrics.Sink) {
	switch c := sink.(type) {
	case interface{ Close() }:
		c.Close()
	case *coremetrics.MultiSink:
		for _, inner := range c.Sinks {
			closeSink(inner)
		}
	}
}

// Tables renders every table of f and the configured measures into the
// tables directory. It returns the written data files.
func (s *Service) Tables(ctx context.Context, f *campaignfile.File) ([]string, error) {
	graphs, err := f.Graphs()
	if err != nil {
		return nil, err
	}
	if len(f.Tables) == 0 {
		graphs = s.defaultGraphs(f)
	}
	if err := os.MkdirAll(s.cfg.Tables.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("tables dir: %w", err)
	}
	var written []string
	for _, g := range graphs {
		if len(g.Options) == 0 {
			g.Options = s.cfg.Tables.Options
		}
		t, err := table.Build(ctx, s.runner, g)
		if err != nil {
			return written, err
		}
		path, err := s.write(t)
		if err != nil {
			return written, err
		}
		s.log.Infof("table %s: %d rows, %d columns", path, len(t.Rows), len(t.Columns))
		written = append(written, path)
	}
	return written, nil
}

// defaultGraphs gives one table per problem and configured measure, with
// every method as a column.
func (s *Service) defaultGraphs(f *campaignfile.File) []table.Graph {
	var out []table.Graph
	for _, p := range f.Problems {
		if len(p.Params.RangedKeys()) == 0 {
			continue
		}
		for _, m := range s.cfg.Tables.Measures {
			out = append(out, table.Graph{
				Measure:  m,
				Problems: []model.ParameterSet{p.Params},
				Methods:  f.Configs(),
			})
		}
	}
	return out
}

func (s *Service) write(t table.Table) (path string, err error) {
	ext := ".dat"
	if s.cfg.Tables.Format == config.FormatJSON {
		ext = ".json"
	}
	path = filepath.Join(s.cfg.Tables.Dir, t.Name+ext)
	if err := writeFile(path, func(f *os.File) error {
		if s.cfg.Tables.Format == config.FormatJSON {
			return export.WriteJSON(f, t)
		}
		return export.WriteDelimited(f, t, export.Format{
			Delimiter:   s.cfg.Tables.DelimiterRune(),
			Placeholder: s.cfg.Tables.Placeholder,
			Header:      s.cfg.Tables.Header,
		})
	}); err != nil {
		return "", err
	}
	opts := filepath.Join(s.cfg.Tables.Dir, t.Name+".opts")
	if err := writeFile(opts, func(f *os.File) error { return export.WriteOptions(f, t) }); err != nil {
		return "", err
	}
	return path, nil
}

func writeFile(path string, fn func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(f)
}

// History queries the ledger.
func (s *Service) History(ctx context.Context, q ledger.Query) ([]ledger.Record, error) {
	if _, err := os.Stat(s.cfg.Ledger.Path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	store, err := ledger.Open(s.cfg.Ledger.Backend, s.cfg.Ledger.Path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Query(ctx, q)
}
