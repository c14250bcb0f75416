// Package campaignfile decodes YAML campaign definitions: the solver
// methods, the problems to sweep and the tables to render. Parameter
// order in a problem is kept as written, since the first ranged
// parameter is the table's X axis.
package campaignfile

import (
	"fmt"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/sweep/core/estimator"
	"github.com/kilianp07/sweep/core/model"
	"github.com/kilianp07/sweep/core/table"
)

// Method is one solver configuration.
type Method struct {
	Language      string `yaml:"language"`
	Preprocessing string `yaml:"preprocessing"`
	Algorithm     string `yaml:"algorithm"`
	Description   string `yaml:"description,omitempty"`
}

// Config converts to the model type.
func (m Method) Config() model.Config {
	return model.NewConfig(m.Language, m.Preprocessing, m.Algorithm, m.Description)
}

// Problem is one parameter set with its declared cost growth.
type Problem struct {
	Name   string
	Growth estimator.Growth
	Params model.ParameterSet
}

// TableDef selects what one result table shows. Problems and Methods name
// entries of the file; an empty Methods list means every method.
type TableDef struct {
	Measure  string   `yaml:"measure"`
	Name     string   `yaml:"name,omitempty"`
	Title    string   `yaml:"title,omitempty"`
	Problems []string `yaml:"problems"`
	Methods  []string `yaml:"methods,omitempty"`
	Options  []string `yaml:"options,omitempty"`
}

// File is a decoded campaign file.
type File struct {
	Methods  []Method
	Problems []Problem
	Tables   []TableDef
}

type rawProblem struct {
	Name   string    `yaml:"name"`
	Growth string    `yaml:"growth"`
	Params yaml.Node `yaml:"params"`
}

type rawFile struct {
	Methods  []Method     `yaml:"methods"`
	Problems []rawProblem `yaml:"problems"`
	Tables   []TableDef   `yaml:"tables"`
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a campaign file.
func Parse(b []byte) (*File, error) {
	var raw rawFile
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	if len(raw.Methods) == 0 {
		return nil, fmt.Errorf("no methods defined")
	}
	f := &File{Methods: raw.Methods, Tables: raw.Tables}
	for i, m := range raw.Methods {
		if m.Language == "" || m.Algorithm == "" {
			return nil, fmt.Errorf("method %d: language and algorithm are required", i)
		}
		if m.Preprocessing == "" {
			f.Methods[i].Preprocessing = "none"
		}
	}
	for i, rp := range raw.Problems {
		g, err := estimator.ParseGrowth(rp.Growth)
		if err != nil {
			return nil, fmt.Errorf("problem %d: %w", i, err)
		}
		ps, err := decodeParams(&rp.Params)
		if err != nil {
			return nil, fmt.Errorf("problem %d: %w", i, err)
		}
		name := rp.Name
		if name == "" {
			name = ps.Description()
		}
		f.Problems = append(f.Problems, Problem{Name: name, Growth: g, Params: ps})
	}
	return f, nil
}

func decodeParams(n *yaml.Node) (model.ParameterSet, error) {
	ps := model.NewParameterSet()
	if n.Kind == 0 {
		return ps, nil
	}
	if n.Kind != yaml.MappingNode {
		return ps, fmt.Errorf("line %d: params must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		v, err := decodeValue(n.Content[i+1])
		if err != nil {
			return ps, fmt.Errorf("%s: %w", key, err)
		}
		ps.Set(key, v)
	}
	return ps, ps.Validate()
}

func decodeValue(n *yaml.Node) (model.Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return scalar(n)
	case yaml.SequenceNode:
		vals := make([]model.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := scalar(c)
			if err != nil {
				return model.Value{}, err
			}
			vals = append(vals, v)
		}
		return model.ListValue(vals...), nil
	case yaml.MappingNode:
		return dimension(n)
	default:
		return model.Value{}, fmt.Errorf("line %d: unsupported value", n.Line)
	}
}

func scalar(n *yaml.Node) (model.Value, error) {
	if n.Kind != yaml.ScalarNode {
		return model.Value{}, fmt.Errorf("line %d: expected a scalar", n.Line)
	}
	switch n.ShortTag() {
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return model.Value{}, err
		}
		return model.IntValue(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return model.Value{}, err
		}
		return model.FloatValue(f), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return model.Value{}, err
		}
		return model.BoolValue(b), nil
	default:
		return model.StringValue(n.Value), nil
	}
}

// dimension decodes {range: [lo, hi]} and {float_range: [lo, hi, step]}.
func dimension(n *yaml.Node) (model.Value, error) {
	if len(n.Content) != 2 {
		return model.Value{}, fmt.Errorf("line %d: expected a single range or float_range key", n.Line)
	}
	kind, body := n.Content[0].Value, n.Content[1]
	switch kind {
	case "range":
		var b []int64
		if err := body.Decode(&b); err != nil || len(b) != 2 {
			return model.Value{}, fmt.Errorf("line %d: range needs [lo, hi] integers", n.Line)
		}
		return model.RangeValue(b[0], b[1]), nil
	case "float_range":
		var b []float64
		if err := body.Decode(&b); err != nil || len(b) != 3 {
			return model.Value{}, fmt.Errorf("line %d: float_range needs [lo, hi, step]", n.Line)
		}
		if b[2] <= 0 {
			return model.Value{}, fmt.Errorf("line %d: float_range step must be positive", n.Line)
		}
		return model.FloatRange(b[0], b[1], b[2]), nil
	default:
		return model.Value{}, fmt.Errorf("line %d: unknown dimension %s", n.Line, strconv.Quote(kind))
	}
}

// Configs returns every method as a model configuration.
func (f *File) Configs() []model.Config {
	out := make([]model.Config, len(f.Methods))
	for i, m := range f.Methods {
		out[i] = m.Config()
	}
	return out
}

// Problem returns the named problem.
func (f *File) Problem(name string) (Problem, bool) {
	for _, p := range f.Problems {
		if p.Name == name {
			return p, true
		}
	}
	return Problem{}, false
}

// Graphs resolves the table definitions against the problems and methods.
func (f *File) Graphs() ([]table.Graph, error) {
	all := f.Configs()
	out := make([]table.Graph, 0, len(f.Tables))
	for i, td := range f.Tables {
		g := table.Graph{Measure: td.Measure, Name: td.Name, Title: td.Title, Options: td.Options}
		for _, name := range td.Problems {
			p, ok := f.Problem(name)
			if !ok {
				return nil, fmt.Errorf("table %d: unknown problem %q", i, name)
			}
			g.Problems = append(g.Problems, p.Params)
		}
		for _, cfg := range all {
			if len(td.Methods) == 0 || slices.Contains(td.Methods, cfg.String()) {
				g.Methods = append(g.Methods, cfg)
			}
		}
		if len(g.Methods) == 0 {
			return nil, fmt.Errorf("table %d: no method matches %v", i, td.Methods)
		}
		out = append(out, g)
	}
	return out, nil
}
