package score

import (
	"github.com/pkg/errors"
)

// ErrCyclicRequirements indicates a cycle in the score requirement graph.
// Well-formed score definitions never produce one; hitting this is a
// configuration fault, reported before any corpus I/O begins.
var ErrCyclicRequirements = errors.New("cyclic score requirements")

// Unit is one schedulable step of a plan: either a batch of sentence scores
// that share a single corpus pass, or a single summary score that needs its
// own full-corpus accumulation pass.
type Unit struct {
	Batch   []SentenceScore
	Summary SummaryScore
}

// IsSummary reports whether the unit is a summary pass.
func (u Unit) IsSummary() bool {
	return u.Summary != nil
}

// Plan is an ordered list of units such that every score appears after all
// of its requirements.
type Plan struct {
	Root  Score
	Units []Unit
}

// NewPlan orders root and its transitive requirements for evaluation.
// Consecutive sentence scores are grouped into one batch so they can share
// one read of each corpus file; summary scores are always their own unit.
func NewPlan(root Score) (*Plan, error) {
	order, err := sortScores(root)
	if err != nil {
		return nil, err
	}

	p := &Plan{Root: root}
	for _, s := range order {
		switch v := s.(type) {
		case SummaryScore:
			p.Units = append(p.Units, Unit{Summary: v})
		case SentenceScore:
			if n := len(p.Units); n > 0 && !p.Units[n-1].IsSummary() {
				p.Units[n-1].Batch = append(p.Units[n-1].Batch, v)
			} else {
				p.Units = append(p.Units, Unit{Batch: []SentenceScore{v}})
			}
		default:
			return nil, errors.Errorf("score %q is neither a sentence nor a summary score", s.Name())
		}
	}
	return p, nil
}

// sortScores returns a topological order (requirements first) of all scores
// reachable from root. Scores are identified by name, so two instances with
// the same name are treated as the same node.
func sortScores(root Score) ([]Score, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var order []Score

	var visit func(s Score) error
	visit = func(s Score) error {
		switch state[s.Name()] {
		case done:
			return nil
		case visiting:
			return errors.Wrapf(ErrCyclicRequirements, "score %q requires itself", s.Name())
		}
		state[s.Name()] = visiting

		for _, req := range s.RequiredSentenceScores() {
			if err := visit(req); err != nil {
				return err
			}
		}
		for _, req := range s.RequiredSummaryScores() {
			if err := visit(req); err != nil {
				return err
			}
		}

		state[s.Name()] = done
		order = append(order, s)
		return nil
	}

	if err := visit(root); err != nil {
		return nil, err
	}
	return order, nil
}
