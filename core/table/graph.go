package table

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/sweep/core/model"
)

// Table options understood here. Anything else is left for the plotter.
const (
	AverageSeed     = "average-seed"
	DivStateCount   = "div-state-count"
	NoLogStateCount = "nolog-state-count"
	Log             = "log"
)

const stateCount = "State count"

// ErrNoAxis is returned when no problem has a ranged parameter.
var ErrNoAxis = errors.New("nothing to graph on the X axis")

// Measurer yields one metric for one run.
type Measurer interface {
	Measure(ctx context.Context, measure string, cfg model.Config, inst model.Instance) (model.Value, bool, error)
}

// Graph describes one table. Either several methods share one problem, in
// which case the methods are the columns, or several problems share one
// method and the problems are the columns.
type Graph struct {
	Measure  string
	Name     string
	Title    string
	Problems []model.ParameterSet
	Methods  []model.Config
	Options  []string
}

func (g Graph) has(opt string) bool { return slices.Contains(g.Options, opt) }

func (g Graph) validate() error {
	switch {
	case g.Measure == "":
		return errors.New("graph has no measure")
	case len(g.Problems) == 0 || len(g.Methods) == 0:
		return errors.New("graph needs at least one problem and one method")
	case len(g.Problems) > 1 && len(g.Methods) > 1:
		return errors.New("graph cannot vary both problems and methods")
	}
	return nil
}

// Build measures every instance of the graph through m and assembles the
// table. Runs happen in column order then key order.
func Build(ctx context.Context, m Measurer, g Graph) (Table, error) {
	if err := g.validate(); err != nil {
		return Table{}, err
	}
	var series []Series
	if len(g.Problems) > 1 {
		for _, ps := range g.Problems {
			s, err := g.series(ctx, m, ps.Description(), ps, g.Methods[0])
			if err != nil {
				return Table{}, err
			}
			series = append(series, s)
		}
	} else {
		for _, cfg := range g.Methods {
			s, err := g.series(ctx, m, cfg.String(), g.Problems[0], cfg)
			if err != nil {
				return Table{}, err
			}
			series = append(series, s)
		}
	}

	t := Assemble(series...)
	t.Name, t.Title = g.Name, g.Title
	fixed, kind := g.Problems[0].Description(), "Problem"
	if len(g.Problems) > 1 {
		fixed, kind = g.Methods[0].String(), "Solution method"
	}
	if t.Title == "" {
		t.Title = kind + ": " + fixed
	}
	if t.Name == "" {
		t.Name = FileName(fixed + "-" + g.Measure)
	}
	axis := g.Problems[0]
	if g.has(AverageSeed) {
		axis = axis.Without("seed")
	}
	t.XLabel = axis.RangeVariable()
	t.YLabel = g.ylabel()
	t.Options = g.plotOptions()
	return t, nil
}

// FileName turns a description into a file name stem.
func FileName(desc string) string {
	return strings.NewReplacer(" ", "-", "(", "", ")", "", "/", "_").Replace(desc)
}

func (g Graph) ylabel() string {
	label := g.Measure
	switch {
	case strings.Contains(g.Measure, "time"):
		label += " (sec)"
	case strings.Contains(strings.ToLower(g.Measure), "memory"):
		label += " (MB)"
	}
	if g.has(DivStateCount) && g.Measure == stateCount {
		label += "/(2^n)"
	}
	return label
}

func (g Graph) plotOptions() []string {
	var out []string
	for _, o := range g.Options {
		switch o {
		case AverageSeed, DivStateCount, NoLogStateCount:
			continue
		case Log:
			if g.has(NoLogStateCount) && g.Measure == stateCount {
				continue
			}
		}
		out = append(out, o)
	}
	return out
}

func (g Graph) series(ctx context.Context, m Measurer, name string, ps model.ParameterSet, cfg model.Config) (Series, error) {
	var seeds []model.Value
	if g.has(AverageSeed) {
		if v, ok := ps.Get("seed"); ok && v.Ranged() {
			seeds = v.Values()
			ps = ps.Without("seed")
		}
	}
	exp := model.Expand(ps)
	if _, single := exp.Single(); single {
		return Series{}, fmt.Errorf("%s: %w", ps.Description(), ErrNoAxis)
	}

	s := Series{Name: name}
	for _, key := range exp.Keys() {
		inst, _ := exp.Lookup(key)
		var (
			c   Cell
			err error
		)
		if seeds == nil {
			c, err = g.measure(ctx, m, cfg, inst)
		} else {
			c, err = g.average(ctx, m, cfg, inst, seeds)
		}
		if err != nil {
			return Series{}, err
		}
		if c.Known && g.has(DivStateCount) && g.Measure == stateCount {
			c = divStateCount(c, inst)
		}
		s.Add(key, c)
	}
	return s, nil
}

func (g Graph) measure(ctx context.Context, m Measurer, cfg model.Config, inst model.Instance) (Cell, error) {
	v, ok, err := m.Measure(ctx, g.Measure, cfg, inst)
	if err != nil {
		return Cell{}, err
	}
	return Cell{Value: v, Known: ok}, nil
}

// average is the mean over the seeds with a numeric result.
func (g Graph) average(ctx context.Context, m Measurer, cfg model.Config, inst model.Instance, seeds []model.Value) (Cell, error) {
	var xs []float64
	for _, seed := range seeds {
		si, err := inst.With("seed", seed)
		if err != nil {
			return Cell{}, err
		}
		c, err := g.measure(ctx, m, cfg, si)
		if err != nil {
			return Cell{}, err
		}
		if f, ok := c.Value.Float(); c.Known && ok {
			xs = append(xs, f)
		}
	}
	if len(xs) == 0 {
		return Cell{}, nil
	}
	return Cell{Value: model.FloatValue(stat.Mean(xs, nil)), Known: true}, nil
}

// divStateCount scales a state count by 2^n, n being the instance's
// variable count after defaults.
func divStateCount(c Cell, inst model.Instance) Cell {
	f, ok := c.Value.Float()
	if !ok {
		return Cell{}
	}
	p := model.NewParameters(inst)
	if err := p.ApplyDefaults(); err != nil {
		return Cell{}
	}
	n, err := p.Int("n")
	if err != nil {
		return Cell{}
	}
	return Cell{Value: model.FloatValue(f / math.Pow(2, float64(n))), Known: true}
}
