package solver

import (
	"fmt"
	"strings"

	"github.com/kilianp07/sweep/core/model"
)

// Supported algorithms.
const (
	Spudd    = "spudd"
	LAOPolIt = "LAO-polIt"
	LAOValIt = "LAO-valIt"
	PolIt    = "polIt"
	ValIt    = "valIt"
)

// SuccessMarker is echoed by the solver once the whole script ran.
const SuccessMarker = "stats run successful"

type script struct {
	lines []string
}

func (s *script) add(lines ...string) { s.lines = append(s.lines, lines...) }

func (s *script) startTimers() { s.add("startTimer", "startCPUtimer") }

func (s *script) stopTimers(timed string) {
	s.add("stopTimer", "stopCPUtimer")
	s.add(fmt.Sprintf("'%s time: ' readTimer", timed), fmt.Sprintf("'%s CPU time: ' readCPUtimer", timed))
}

func (s *script) String() string { return strings.Join(s.lines, "\n") + "\n" }

func unsupported(name, reason string) error {
	return &model.ConfigurationError{Kind: "solver configuration", Name: name, Reason: reason}
}

// BuildScript renders the command script for one statistics run. p must
// carry language, preprocessing, algorithm, discount and epsilon. slow
// adds the memory and policy statistics that perturb timings.
func BuildScript(p *model.Parameters, slow bool) (string, error) {
	lang, err := p.Str("language")
	if err != nil {
		return "", err
	}
	alg, err := p.Str("algorithm")
	if err != nil {
		return "", err
	}
	pre, err := p.Str("preprocessing")
	if err != nil {
		return "", err
	}
	discount, err := p.Str("discount")
	if err != nil {
		return "", err
	}
	epsilon, err := p.Str("epsilon")
	if err != nil {
		return "", err
	}
	lao := strings.HasPrefix(alg, "LAO-")

	var s script
	if alg != Spudd && lang == "PLTL" {
		s.add("startStateRequired(1)")
	}
	s.add("loadWorld('test.world')")
	if slow {
		s.add("monitorMemory(0.1)")
	}

	switch alg {
	case LAOPolIt, LAOValIt, PolIt, ValIt:
		if slow {
			s.add("expansionMemory(1)")
		}
		switch lang {
		case "PLTL":
			s.startTimers()
			if pre == "minimise" {
				s.add("preprocess('mPltl')")
			} else {
				s.add("preprocess('pltl')")
			}
			s.stopTimers("preprocessing")
			s.startTimers()
			if !lao {
				s.add("expand")
			}
			s.stopTimers("expansion")
		case "FLTL":
			s.startTimers()
			s.add("preprocess('')")
			s.stopTimers("preprocessing")
			if !lao {
				s.startTimers()
				s.add("expand")
				s.stopTimers("expansion")
			}
		default:
			return "", unsupported(alg, fmt.Sprintf("does not support %s", lang))
		}
	case Spudd:
		if lang != "PLTL" {
			return "", unsupported(alg, fmt.Sprintf("does not support %s", lang))
		}
		s.startTimers()
		s.add("PLTLvarExpand")
		s.stopTimers("NMRDP->MDP conversion")
	default:
		return "", unsupported(alg, "unknown algorithm")
	}

	s.startTimers()
	switch alg {
	case Spudd:
		switch pre {
		case "none":
		case "auto-constrain":
			s.add("autoConstrain")
		default:
			return "", unsupported(alg, fmt.Sprintf("does not support '%s' preprocessing", pre))
		}
		if slow {
			s.add("monitorSpuddPolicyChanges='true'")
		}
		s.add(fmt.Sprintf("spudd(%s, %s)", discount, epsilon))
		if slow {
			s.add(
				"'policy-change-history:' spuddChangeHistory",
				"'value-leaf-count:' spuddValueLeaves",
				"'value-density:' spuddValueDensity",
				"'value-node-count:' spuddValueNodes",
				"'value-path-count:' spuddValuePaths",
				"'reachable states:' reachableStates",
			)
		} else {
			s.add("'delta-history: ' spuddDeltaHistory")
		}
	case LAOPolIt, LAOValIt:
		s.add(fmt.Sprintf("LAO('%s', %s, %s)", strings.TrimPrefix(alg, "LAO-"), discount, epsilon))
	case PolIt:
		s.add(fmt.Sprintf("polIt(%s)", discount))
	case ValIt:
		s.add(fmt.Sprintf("valIt(%s, %s)", discount, epsilon))
	}

	if alg != Spudd {
		s.add("iterationCount")
		if slow {
			s.add("expansionPeak")
		}
		s.add("longestLabel", "domainStateSize", "averageLabelSize", "domainMemorySize")
	}
	if slow {
		s.add("stopMonitoringMemory")
	}
	s.stopTimers("Algorithm execution")
	if slow {
		s.add("'peak memory usage: ' peakMemoryUsage")
	}
	s.add("'"+SuccessMarker+"'", "quit")
	return s.String(), nil
}
