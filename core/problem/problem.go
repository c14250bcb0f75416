// Package problem renders the domain specification handed to the solver.
// Reward and action specification families are registered by name in
// factory registries and resolved from the reward_spec and action_spec
// parameters of an instance.
package problem

import (
	"fmt"
	"strings"

	"github.com/kilianp07/sweep/core/factory"
	"github.com/kilianp07/sweep/core/model"
)

// Language selects the temporal logic a reward is written in.
type Language string

const (
	PLTL Language = "PLTL"
	FLTL Language = "FLTL"
)

// Args are the parameters a specification family reads once defaults
// have been applied.
type Args struct {
	N                       int     `json:"n"`
	NumVars                 int     `json:"num_vars"`
	NumActions              int     `json:"num_actions"`
	Reward                  string  `json:"reward"`
	First                   bool    `json:"first"`
	Conjdisj                string  `json:"conjdisj"`
	K                       int     `json:"k"`
	Power                   int     `json:"power"`
	Delay                   int     `json:"delay"`
	ExpProp                 float64 `json:"exp_prop"`
	Level1                  string  `json:"level1"`
	Level2                  string  `json:"level2"`
	InitialPropositionValue bool    `json:"initial_proposition_value"`
}

// RewardSpec produces the reward formulae of a domain.
type RewardSpec interface {
	Formulae(lang Language) ([]string, error)
}

// ActionSpec produces the action block of a domain.
type ActionSpec interface {
	Actions() string
}

type family struct {
	defaults func(*model.Parameters)
	requires []string
}

var (
	rewards        = factory.NewRegistry[RewardSpec]()
	actions        = factory.NewRegistry[ActionSpec]()
	rewardFamilies = map[string]family{}
	actionFamilies = map[string]family{}
)

func registerReward(name string, build func(Args) RewardSpec, f family) {
	rewards.MustRegister(name, func(conf map[string]any) (RewardSpec, error) {
		var a Args
		if err := factory.Decode(conf, &a); err != nil {
			return nil, err
		}
		return build(a), nil
	})
	rewardFamilies[name] = f
}

func registerAction(name string, build func(Args) ActionSpec, f family) {
	actions.MustRegister(name, func(conf map[string]any) (ActionSpec, error) {
		var a Args
		if err := factory.Decode(conf, &a); err != nil {
			return nil, err
		}
		return build(a), nil
	})
	actionFamilies[name] = f
}

// RewardSpecs lists the registered reward families.
func RewardSpecs() []string { return rewards.Names() }

// ActionSpecs lists the registered action families.
func ActionSpecs() []string { return actions.Names() }

// Validate checks that the reward and action families named by inst
// exist. It is run for every instance before scheduling starts.
func Validate(inst model.Instance) error {
	r, ok := inst.Get("reward_spec")
	if !ok {
		return &model.ConfigurationError{Kind: "parameter", Name: "reward_spec", Reason: "value required"}
	}
	if !rewards.Has(r.String()) {
		return &model.ConfigurationError{Kind: "reward_spec", Name: r.String()}
	}
	a, ok := inst.Get("action_spec")
	if !ok {
		return &model.ConfigurationError{Kind: "parameter", Name: "action_spec", Reason: "value required"}
	}
	if !actions.Has(a.String()) {
		return &model.ConfigurationError{Kind: "action_spec", Name: a.String()}
	}
	return nil
}

// World applies the family defaults to p and renders the domain
// specification text. p must already carry the global defaults.
func World(p *model.Parameters) (string, error) {
	rname, err := p.Str("reward_spec")
	if err != nil {
		return "", err
	}
	aname, err := p.Str("action_spec")
	if err != nil {
		return "", err
	}
	rf, ok := rewardFamilies[rname]
	if !ok {
		return "", &model.ConfigurationError{Kind: "reward_spec", Name: rname}
	}
	af, ok := actionFamilies[aname]
	if !ok {
		return "", &model.ConfigurationError{Kind: "action_spec", Name: aname}
	}
	lang, err := p.Str("language")
	if err != nil {
		return "", err
	}

	if rf.defaults != nil {
		rf.defaults(p)
	}
	if af.defaults != nil {
		af.defaults(p)
	}
	for _, key := range append(append([]string{}, rf.requires...), af.requires...) {
		if _, err := p.Required(key); err != nil {
			return "", err
		}
	}

	conf := p.Map()
	r, err := rewards.Create(factory.ModuleConfig{Type: rname, Conf: conf})
	if err != nil {
		return "", fmt.Errorf("reward spec %s: %w", rname, err)
	}
	a, err := actions.Create(factory.ModuleConfig{Type: aname, Conf: conf})
	if err != nil {
		return "", fmt.Errorf("action spec %s: %w", aname, err)
	}
	formulae, err := r.Formulae(Language(lang))
	if err != nil {
		return "", &model.ConfigurationError{Kind: "reward_spec", Name: rname, Reason: err.Error()}
	}

	var args Args
	if err := factory.Decode(conf, &args); err != nil {
		return "", err
	}
	var b strings.Builder
	if args.InitialPropositionValue {
		for i := 1; i <= args.N; i++ {
			fmt.Fprintf(&b, "p%d = tt\n", i)
		}
	}
	for i, f := range formulae {
		fmt.Fprintf(&b, "[r%d, %s]? %s\n", i, args.Reward, f)
	}
	b.WriteString("\n")
	body := a.Actions()
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	return b.String(), nil
}
