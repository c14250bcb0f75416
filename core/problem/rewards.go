package problem

import (
	"fmt"
	"strings"

	"github.com/kilianp07/sweep/core/model"
)

func reward(pltl, fltl func(Args) []string) func(Args) RewardSpec {
	return func(a Args) RewardSpec { return formula{args: a, pltl: pltl, fltl: fltl} }
}

func init() {
	registerReward("TempLin", reward(
		func(a Args) []string { return one(fmt.Sprintf("prv^ %d ~ prv tt", a.N-1)) },
		func(a Args) []string { return one(fmt.Sprintf("nxt ^ %d $", a.N-1)) },
	), family{})

	registerReward("AllTrue", reward(
		func(a Args) []string { return one(pltlFirstEvery(a, strings.Join(props(a.NumVars), " and "))) },
		func(a Args) []string { return one(fltlFirstEvery(a, strings.Join(props(a.NumVars), " and "), 0)) },
	), family{})

	registerReward("SomeTrue", reward(
		func(a Args) []string { return one(pltlFirstEvery(a, strings.Join(props(a.NumVars), " or "))) },
		func(a Args) []string { return one(fltlFirstEvery(a, strings.Join(props(a.NumVars), " or "), 0)) },
	), family{})

	registerReward("OneTrue", reward(
		func(a Args) []string { return one(pltlFirstEvery(a, "p1")) },
		func(a Args) []string { return one(fltlFirstEvery(a, "p1", 0)) },
	), family{})

	registerReward("ConstantFactor", reward(
		func(a Args) []string {
			all := strings.Join(props(a.NumVars), " and ")
			return one(strings.Join(collect(0, 2, func(i int) string {
				return prvOrNothing(i) + "(" + all + ")"
			}), " and "))
		},
		func(a Args) []string {
			all := strings.Join(props(a.NumVars), " and ")
			cond := strings.Join(collect(0, 2, func(i int) string {
				return nxtOrNothing(i) + "(" + all + ")"
			}), " and ")
			return one(fmt.Sprintf("fbx ((%s) -> %s $)", cond, nxtOrNothing(2)))
		},
	), family{})

	linear := reward(
		func(a Args) []string {
			return one(strings.Join(collect(1, a.N-1, func(i int) string {
				return fmt.Sprintf("(prv p%d and p%d)", i, i+1)
			}), " or "))
		},
		func(a Args) []string {
			return one("fbx (" + strings.Join(collect(1, a.N-1, func(i int) string {
				return fmt.Sprintf("(p%d and nxt p%d -> nxt $)", i, i+1)
			}), " and ") + ")")
		},
	)
	registerReward("RewardLinear", linear, family{})
	registerReward("Sequence2", linear, family{})

	registerReward("Exponential", reward(
		func(a Args) []string {
			return one(fmt.Sprintf("prv^%d (%s)", a.N, strings.Join(props(a.N), " and ")))
		},
		func(a Args) []string {
			return one(fmt.Sprintf("fbx ( (%s) -> %s $)", strings.Join(props(a.N), " and "), nxtOrNothing(a.N)))
		},
	), family{})

	registerReward("Sequence", reward(
		func(a Args) []string {
			cond := strings.Join(collect(1, a.N, func(i int) string {
				return fmt.Sprintf("(%s p%d)", prvOrNothing(a.N-i), i)
			}), " and ")
			return one(pltlFirstEvery(a, cond))
		},
		func(a Args) []string {
			cond := strings.Join(collect(1, a.N, func(i int) string {
				return fmt.Sprintf("(%s p%d)", nxtOrNothing(i-1), i)
			}), " and ")
			return one(fltlFirstEvery(a, cond, a.N-1))
		},
	), family{})

	registerReward("SeqSeq", reward(
		func(a Args) []string {
			n2 := a.N * a.N
			cond := strings.Join(collect(1, n2-1, func(i int) string {
				return fmt.Sprintf("(%s p%d)", prvOrNothing(n2-i), ((n2-(i-1))%a.N)+1)
			}), " and ")
			if a.N > 1 {
				cond += " and"
			}
			cond += fmt.Sprintf(" p%d", a.N)
			return one(pltlFirstEvery(a, cond))
		},
		func(a Args) []string {
			n2 := a.N * a.N
			cond := "p1"
			if a.N > 1 {
				cond += " and "
			}
			cond += strings.Join(collect(2, n2, func(i int) string {
				return fmt.Sprintf("%s p%d", nxtOrNothing(i-1), ((i-1)%a.N)+1)
			}), " and ")
			return one(fltlFirstEvery(a, cond, n2-1))
		},
	), family{})

	registerReward("Polynomial", reward(
		func(a Args) []string { return one(pltlFirstEvery(a, fmt.Sprintf("p1 and prv or < %d p2", a.N))) },
		func(a Args) []string {
			return one(fltlFirstEvery(a, fmt.Sprintf("(nxt or < %d p1) and (%s p2)", a.N, nxtOrNothing(a.N)), a.N))
		},
	), family{})

	registerReward("Poly2", reward(
		func(a Args) []string { return one(fmt.Sprintf("prv^%d tt and p2 and prv or < %d p1", a.N, a.N)) },
		func(a Args) []string {
			return one(fmt.Sprintf("fbx (((nxt or < %d p1) and (%s p2)) -> nxt^%d $)", a.N, nxtOrNothing(a.N), a.N))
		},
	), family{})

	registerReward("Piano", reward(
		func(a Args) []string {
			out := collect(2, a.N-1, func(i int) string {
				return fmt.Sprintf("((~p%d and (prv tt)) snc p1) and (prv p%d) and p%d", a.N, i-1, i)
			})
			return append(out, fmt.Sprintf("((~(prv p%d)) snc p1) and (prv p%d) and p%d", a.N, a.N-1, a.N))
		},
		func(a Args) []string {
			return collect(2, a.N, func(i int) string {
				return fmt.Sprintf("fbx ( p1 -> ( ((p%d and (nxt p%d)) -> nxt($)) fut p%d ) )", i-1, i, a.N)
			})
		},
	), family{})

	registerReward("NonMinPLTL_Min", reward(
		func(a Args) []string {
			return collect(1, a.N, func(i int) string { return fmt.Sprintf("prv p%d", i) })
		},
		func(a Args) []string {
			return collect(1, a.N, func(i int) string { return fmt.Sprintf("fbx ( p%d -> nxt $)", i) })
		},
	), family{})

	registerReward("RewardIrrelevance", reward(
		func(a Args) []string {
			return []string{
				"p and prv c",
				fmt.Sprintf("p and prv ^ %d prv c", a.K),
				fmt.Sprintf("p and prv and < %d c", a.K),
				fmt.Sprintf("p and prv ^ %d c", a.K),
			}
		},
		func(a Args) []string {
			return []string{
				"fbx (c -> fbx (p -> $))",
				fmt.Sprintf("fbx (c -> nxt ^ %d fbx (p -> $))", a.K),
				fmt.Sprintf("fbx ((nxt and < %d c and nxt ^ %d p) -> nxt ^ %d $)", a.K, a.K, a.K-1),
				fmt.Sprintf("fbx ((c and nxt ^ %d p) -> nxt ^ %d $)", a.K, a.K),
			}
		},
	), family{requires: []string{"k"}})

	registerReward("LinearSequence", reward(
		func(a Args) []string {
			parts := make([]string, 0, a.N)
			for i := a.N; i >= 1; i-- {
				parts = append(parts, fmt.Sprintf("%s p%d", prvOrNothing(i-1), i))
			}
			return one(strings.Join(parts, " and ") + fmt.Sprintf(" and  prv^%d ~ prv tt", a.N))
		},
		func(a Args) []string {
			return one(strings.Join(collect(1, a.N, func(i int) string {
				return fmt.Sprintf("( nxt ^ %d p%d)", i, i)
			}), " and ") + fmt.Sprintf(" -> nxt^%d $", a.N))
		},
	), family{})

	dcdelay := func(delay func(Args) int) func(Args) RewardSpec {
		some := func(a Args) string {
			return strings.Join(props(min(a.N-1, a.NumVars)), " or ")
		}
		return reward(
			func(a Args) []string {
				return one(pltlFirstEvery(a, fmt.Sprintf("prv ^ %d ( (%s) and G)", delay(a), some(a))))
			},
			func(a Args) []string {
				return one(fltlFirstEvery(a, fmt.Sprintf("( (%s) and G)", some(a)), delay(a)))
			},
		)
	}
	registerReward("DCDelay", dcdelay(func(a Args) int { return a.N }), family{})
	registerReward("DCDelayFixed", dcdelay(func(a Args) int { return a.Delay }), family{requires: []string{"delay"}})

	registerReward("Unachievable", reward(
		func(a Args) []string {
			return collect(1, a.N, func(i int) string {
				return fmt.Sprintf("(prv ^ %d p1) and p3 and ((~p2) snc p1)", i)
			})
		},
		func(a Args) []string {
			return collect(1, a.N, func(i int) string {
				alts := collect(0, i, func(j int) string {
					return fmt.Sprintf("(%s and %s)", nxtExp(j, "p1"), nxtExp(j, nxtAnd(i-j+1, "(~p1 and ~p2)")))
				})
				return fmt.Sprintf("fbx((p1 and nxt^%d p3 and %s)-> nxt^%d $)", i, strings.Join(alts, " or "), i)
			})
		},
	), family{})

	registerReward("TwoLevel", reward(
		func(a Args) []string {
			open := func(level string) string {
				switch level {
				case "Asnc":
					return "A snc"
				case "sncA":
					return ""
				default:
					return level
				}
			}
			closing := func(level string) string {
				if level == "sncA" {
					return "snc A"
				}
				return ""
			}
			inner := strings.Join(props(a.NumVars), " "+a.Conjdisj+" ")
			return one(open(a.Level1) + "(" + open(a.Level2) + "(" + inner + ")" + closing(a.Level2) + ")" + closing(a.Level1))
		},
		nil,
	), family{requires: []string{"level1", "level2", "conjdisj"}})

	registerReward("PrvIn", reward(
		func(a Args) []string { return one(fmt.Sprintf("prv ^ %d(%s)", a.N, joinCD(a, props(a.N)))) },
		func(a Args) []string {
			return one(fmt.Sprintf("fbx (%s(%s) -> %s $)", nxtOrNothing(a.N), joinCD(a, props(a.N)), nxtOrNothing(a.N)))
		},
	), family{requires: []string{"conjdisj"}})

	registerReward("PrvOut", reward(
		func(a Args) []string {
			return one("(" + joinCD(a, collect(1, a.N, func(i int) string {
				return fmt.Sprintf("prv ^ %d (p%d)", a.N, i)
			})) + ")")
		},
		func(a Args) []string {
			return one("fbx (" + joinCD(a, collect(1, a.N, func(i int) string {
				return fmt.Sprintf("(p%d -> %s $)", i, nxtOrNothing(a.N))
			})) + ")")
		},
	), family{requires: []string{"conjdisj"}})

	initiallyTrue := func(p *model.Parameters) { p.Default("initial_proposition_value", model.BoolValue(true)) }

	registerReward("PbxIn", reward(
		func(a Args) []string {
			return one(strings.Repeat("pbx ", a.N) + "(" + joinCD(a, props(a.N)) + ")")
		},
		func(a Args) []string {
			return one(strings.Repeat("fbx ", max(a.N-1, 0)) + "$ fut ~ (" + joinCD(a, props(a.N)) + ")")
		},
	), family{defaults: initiallyTrue, requires: []string{"conjdisj"}})

	registerReward("PbxOut", reward(
		func(a Args) []string {
			return one("(" + joinCD(a, collect(1, a.N, func(i int) string {
				return strings.Repeat("pbx ", a.N) + fmt.Sprintf("p%d", i)
			})) + ")")
		},
		func(a Args) []string {
			return one("(" + joinCD(a, collect(1, a.N, func(i int) string {
				return "(" + strings.Repeat("fbx ", max(a.N-1, 0)) + fmt.Sprintf("$ fut ~ p%d)", i)
			})) + ")")
		},
	), family{defaults: initiallyTrue, requires: []string{"conjdisj"}})

	registerReward("KillFLTL", reward(
		func(a Args) []string {
			return one(fmt.Sprintf("(prv ^ %d (%s) and G)", a.Power, joinCD(a, props(a.N))))
		},
		func(a Args) []string {
			return one(fmt.Sprintf("fbx ((%s and %s G) -> %s $)", joinCD(a, props(a.N)), nxtOrNothing(a.Power), nxtOrNothing(a.Power)))
		},
	), family{requires: []string{"power", "conjdisj"}})

	registerReward("ExpensivePhaseI", reward(
		func(a Args) []string { return one(fmt.Sprintf("prv ^ %d (%s)", a.Power, joinCD(a, props(a.N)))) },
		func(a Args) []string {
			return one(fmt.Sprintf("fbx ((%s) -> %s $)", joinCD(a, props(a.N)), nxtOrNothing(a.Power)))
		},
	), family{requires: []string{"power", "conjdisj"}})

	exactTiming := func(offset int) func(Args) RewardSpec {
		return reward(
			func(a Args) []string {
				return one(strings.Join(props(a.NumVars), " and ") + fmt.Sprintf(" and prv^%d ~p%d", a.N-2, a.N-offset))
			},
			func(a Args) []string {
				return one(fmt.Sprintf("fbx((~p%d) -> nxt^%d ((%s) -> $))", a.N-offset, a.N-2, strings.Join(props(a.NumVars), " and ")))
			},
		)
	}
	registerReward("AchievableExactTiming", exactTiming(2), family{})
	registerReward("UnachievableExactTiming", exactTiming(1), family{})

	registerReward("TimePeriod", reward(
		func(a Args) []string {
			return one(strings.Join(props(a.NumVars), " and ") + fmt.Sprintf(" and prv or <%d ~p%d", a.K+1, a.N-1))
		},
		func(a Args) []string {
			return one(fmt.Sprintf("fbx((~p%d) -> nxt and <%d ((%s) -> $))", a.N-1, a.K+1, strings.Join(props(a.NumVars), " and ")))
		},
	), family{requires: []string{"k"}})
}

func nxtExp(i int, theta string) string {
	switch i {
	case 0:
		return theta
	case 1:
		return "nxt " + theta
	default:
		return fmt.Sprintf("nxt^%d %s", i, theta)
	}
}

func nxtAnd(i int, theta string) string {
	if i == 1 {
		return "tt"
	}
	return fmt.Sprintf("nxt and < %d %s", i, theta)
}
