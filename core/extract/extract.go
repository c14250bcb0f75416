// Package extract turns the results section of a run record into a table
// of named metrics. Parsing is tolerant: unmatched lines are skipped so
// new solver output never breaks extraction.
package extract

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/sweep/core/model"
)

// Derived metric names.
const (
	TotalTime                 = "Total time"
	TotalCPUTime              = "Total CPU time"
	IterationsToCorrectPolicy = "Iterations to correct policy"
)

var (
	resultsStart = regexp.MustCompile(`^----------results----------$`)
	banner       = regexp.MustCompile(`^----------.*----------$`)
)

type coercion int

const (
	numeric coercion = iota
	sequence
	text
)

type rule struct {
	re     *regexp.Regexp
	metric string
	as     coercion
}

const num = `(-?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)`

// rules are tried in order; the first match of a line wins.
var rules = []rule{
	{regexp.MustCompile(`^The domain is currently comprised of (\d+) e-states\.`), "State count", numeric},
	{regexp.MustCompile(`^Algorithm execution time: ` + num), "Algorithm time", numeric},
	{regexp.MustCompile(`^Algorithm execution CPU time: ` + num), "Algorithm CPU time", numeric},
	{regexp.MustCompile(`^preprocessing time: ` + num), "Preprocessing time", numeric},
	{regexp.MustCompile(`^preprocessing CPU time: ` + num), "Preprocessing CPU time", numeric},
	{regexp.MustCompile(`^expansion time: ` + num), "Expansion time", numeric},
	{regexp.MustCompile(`^expansion CPU time: ` + num), "Expansion CPU time", numeric},
	{regexp.MustCompile(`^NMRDP->MDP conversion time: ` + num), "NMR conversion time", numeric},
	{regexp.MustCompile(`^NMRDP->MDP conversion CPU time: ` + num), "NMR conversion CPU time", numeric},
	{regexp.MustCompile(`^delta-history: (.*)$`), "Delta history", sequence},
	{regexp.MustCompile(`^converged after (\d+) iterations with deltaMax = `), "Iterations", numeric},
	{regexp.MustCompile(`^The longest label is comprised of (\d+) operators\.`), "Longest label length", numeric},
	{regexp.MustCompile(`^Iteration number: *(\d+)`), "Iterations", numeric},
	{regexp.MustCompile(`^The average label is comprised of (\d+) operators\.`), "Average label length", numeric},
	{regexp.MustCompile(`^The domain is currently (\d+) Kb in size\.`), "Domain memory", numeric},
	{regexp.MustCompile(`^policy-change-history: *([01]+)$`), "Policy change", text},
	{regexp.MustCompile(`value-leaf-count: *(\d+)`), "Value leaf count", numeric},
	{regexp.MustCompile(`value-node-count: *(\d+)`), "Value node count", numeric},
	{regexp.MustCompile(`value-path-count: *(\d+)`), "Value path count", numeric},
	{regexp.MustCompile(`value-density: *` + num), "Value density", numeric},
	{regexp.MustCompile(`peak memory usage: *` + num), "Peak memory usage", numeric},
	{regexp.MustCompile(`reachable states: *` + num), "Reachable states", numeric},
}

// Number parses a numeric capture: float when it carries a decimal point
// or exponent marker, integer otherwise.
func Number(s string) (model.Value, bool) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Value{}, false
		}
		return model.FloatValue(f), true
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return model.Value{}, false
	}
	return model.IntValue(i), true
}

// Table maps metric names to values for one run.
type Table struct {
	values map[string]model.Value
	names  []string
}

func (t *Table) set(name string, v model.Value) {
	if t.values == nil {
		t.values = make(map[string]model.Value)
	}
	if _, ok := t.values[name]; !ok {
		t.names = append(t.names, name)
	}
	t.values[name] = v
}

// Extract parses every results section of raw.
func Extract(raw []byte) Table {
	var t Table
	in := false
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !in {
			in = resultsStart.MatchString(line)
			continue
		}
		if banner.MatchString(line) {
			in = resultsStart.MatchString(line)
			continue
		}
		t.match(line)
	}
	return t
}

func (t *Table) match(line string) {
	for _, r := range rules {
		m := r.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		switch r.as {
		case numeric:
			if v, ok := Number(m[1]); ok {
				t.set(r.metric, v)
			}
		case sequence:
			parts := strings.Split(m[1], ",")
			vals := make([]model.Value, len(parts))
			for i, p := range parts {
				vals[i] = model.StringValue(p)
			}
			t.set(r.metric, model.ListValue(vals...))
		case text:
			t.set(r.metric, model.StringValue(m[1]))
			if r.metric == "Policy change" {
				t.set(IterationsToCorrectPolicy, model.IntValue(int64(strings.LastIndex(m[1], "1")+1)))
			}
		}
		return
	}
}

// Names lists the matched metrics in first-seen order.
func (t Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len returns the number of matched metrics.
func (t Table) Len() int { return len(t.names) }

// Get returns the named metric. The derived totals are always available
// and sum to zero without constituents. Any other absent name is unknown.
func (t Table) Get(name string) (model.Value, bool) {
	switch name {
	case TotalTime:
		return model.FloatValue(t.sum(func(n string) bool {
			return strings.Contains(strings.ToLower(n), "time") && !strings.Contains(n, "CPU")
		})), true
	case TotalCPUTime:
		return model.FloatValue(t.sum(func(n string) bool {
			return strings.Contains(strings.ToLower(n), "cpu time")
		})), true
	}
	v, ok := t.values[name]
	return v, ok
}

// Float returns the named metric as a number.
func (t Table) Float(name string) (float64, bool) {
	v, ok := t.Get(name)
	if !ok {
		return 0, false
	}
	return v.Float()
}

func (t Table) sum(match func(string) bool) float64 {
	var xs []float64
	for _, n := range t.names {
		if !match(n) {
			continue
		}
		if f, ok := t.values[n].Float(); ok {
			xs = append(xs, f)
		}
	}
	return floats.Sum(xs)
}
