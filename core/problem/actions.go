package problem

import (
	"fmt"
	"strings"

	"github.com/kilianp07/sweep/core/model"
)

type actionFunc func(Args) string

func (f actionFunc) bind(a Args) ActionSpec { return boundAction{a: a, f: f} }

type boundAction struct {
	a Args
	f actionFunc
}

func (b boundAction) Actions() string { return b.f(b.a) }

func linExpDefaults(p *model.Parameters) {
	p.Default("discount", model.FloatValue(0.99))
	p.Default("epsilon", model.FloatValue(0.01))
	p.Default("reward", model.IntValue(10000000000000000))
}

// linExp makes the first actions behave linearly and the rest
// exponentially; exp_prop is the exponential share.
func linExp(a Args) string {
	var b strings.Builder
	level := int((1-a.ExpProp)*float64(a.N-1)) + 1
	for i := 1; i <= a.N; i++ {
		fmt.Fprintf(&b, "action a%d\n", i)
		for j := 1; j < i; j++ {
			fmt.Fprintf(&b, "  p%d (0.0)\n", j)
		}
		fmt.Fprintf(&b, "  p%d ", i)
		if i <= level {
			b.WriteString("(1.0)\n")
		} else {
			for j := level; j < i; j++ {
				fmt.Fprintf(&b, "(p%d ", j)
			}
			b.WriteString(" (1.0)")
			b.WriteString(strings.Repeat(" (0.0))", i-level))
			b.WriteString("\n")
		}
		b.WriteString("endaction\n")
	}
	return b.String()
}

func balls(a Args) string {
	var b strings.Builder
	for i := 1; i <= a.N; i++ {
		fmt.Fprintf(&b, "action a%d\n  p%d (p%d (1.0) (0.8))\nendaction\n", i, i, i)
		fmt.Fprintf(&b, "action r%d\n  p%d (p%d (0.2) (0.0))\nendaction\n", i, i, i)
	}
	return b.String()
}

func fiftyFifty(tail string) actionFunc {
	return func(a Args) string {
		var b strings.Builder
		b.WriteString("action all\n")
		for i := 1; i <= a.NumVars; i++ {
			fmt.Fprintf(&b, "   p%d (0.5)\n", i)
		}
		b.WriteString(tail)
		b.WriteString("endaction")
		return b.String()
	}
}

// complete gives every action do<k> a distinct chance of setting p<k>.
func complete(tail string) actionFunc {
	return func(a Args) string {
		blocks := make([]string, 0, a.NumActions)
		for act := 1; act <= a.NumActions; act++ {
			var b strings.Builder
			fmt.Fprintf(&b, "action do%d\n", act)
			for i := 1; i <= a.NumVars; i++ {
				if i == act {
					fmt.Fprintf(&b, "   p%d (%s)\n", i, model.FloatValue(float64(act)/float64(a.N+1)))
				} else {
					fmt.Fprintf(&b, "   p%d (0.5)\n", i)
				}
			}
			b.WriteString(tail)
			b.WriteString("endaction")
			blocks = append(blocks, b.String())
		}
		return strings.Join(blocks, "\n")
	}
}

func init() {
	registerAction("LinExp", actionFunc(linExp).bind, family{defaults: linExpDefaults, requires: []string{"exp_prop"}})
	registerAction("SpuddExpon", actionFunc(linExp).bind, family{defaults: func(p *model.Parameters) {
		p.Default("exp_prop", model.FloatValue(1.0))
		linExpDefaults(p)
	}})
	registerAction("SpuddLinear", actionFunc(linExp).bind, family{defaults: func(p *model.Parameters) {
		p.Default("exp_prop", model.FloatValue(0.0))
	}})
	registerAction("Balls", actionFunc(balls).bind, family{})
	registerAction("FiftyFifty", fiftyFifty("").bind, family{})
	registerAction("FiftyFiftyLessG", fiftyFifty("   G (0.0)\n").bind, family{})
	registerAction("Complete", complete("").bind, family{})
	registerAction("CompleteNoP", complete("   p (0.0)\n   c (0.5)\n").bind, family{})
	registerAction("CompleteNoC", complete("   c (0.0)\n   p (0.5)\n").bind, family{})
}
