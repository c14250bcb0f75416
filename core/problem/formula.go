package problem

import (
	"fmt"
	"strings"
)

// props returns p1..pn.
func props(n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("p%d", i))
	}
	return out
}

func collect(lo, hi int, f func(i int) string) []string {
	var out []string
	for i := lo; i <= hi; i++ {
		out = append(out, f(i))
	}
	return out
}

func nxtOrNothing(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("nxt^%d", n)
}

func prvOrNothing(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("prv^%d", n)
}

// pltlFirstEvery rewards f, or only its first occurrence when first is set.
func pltlFirstEvery(a Args, f string) string {
	if a.First {
		return fmt.Sprintf("(%s) and ~(prv pdi (%s))", f, f)
	}
	return f
}

// fltlFirstEvery rewards f after delay steps, or only its first occurrence
// when first is set.
func fltlFirstEvery(a Args, f string, delay int) string {
	if a.First {
		return fmt.Sprintf("(~(%s)) fut ((%s) and %s $)", f, f, nxtOrNothing(delay))
	}
	return fmt.Sprintf("fbx ((%s) -> %s $)", f, nxtOrNothing(delay))
}

func joinCD(a Args, parts []string) string {
	return strings.Join(parts, " "+a.Conjdisj+" ")
}

// formula is a reward family defined by one PLTL and one FLTL renderer.
// A nil renderer means the family has no formulation in that language.
type formula struct {
	args Args
	pltl func(Args) []string
	fltl func(Args) []string
}

func (f formula) Formulae(lang Language) ([]string, error) {
	var render func(Args) []string
	switch lang {
	case PLTL:
		render = f.pltl
	case FLTL:
		render = f.fltl
	default:
		return nil, fmt.Errorf("unsupported language %q", lang)
	}
	if render == nil {
		return nil, fmt.Errorf("%s not implemented", lang)
	}
	return render(f.args), nil
}

func one(s string) []string { return []string{s} }
