// Package score defines the scoring functions computed over a corpus and the
// dependency-aware plan that orders their evaluation.
//
// A score is either a sentence score (one float per corpus line) or a summary
// score (a corpus-wide accumulator that must finish a full pass before any
// dependent may read it). Scores declare the other scores they require; the
// requirement relation must be acyclic.
package score

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Sentence is one corpus line split into whitespace tokens.
type Sentence struct {
	Text  string
	Words []string
}

// NewSentence tokenizes a corpus line.
func NewSentence(line string) Sentence {
	return Sentence{Text: line, Words: strings.Fields(line)}
}

// Score is the common surface of sentence and summary scores. Name must be
// deterministic in the score's configuration: equal names imply equal
// configurations, which is what lets cache entries be shared.
type Score interface {
	Name() string
	RequiredSentenceScores() []SentenceScore
	RequiredSummaryScores() []SummaryScore
}

// SentenceScore produces one value per sentence. ScoreSentence must be pure:
// the same sentence and dependency values always yield the same result.
type SentenceScore interface {
	Score
	ScoreSentence(s Sentence, deps *Deps) (float64, error)
}

// SummaryScore accumulates state across an entire corpus. It produces no
// per-sentence value; dependents read its finalized state through whatever
// accessors the concrete type exposes. State round-trips through
// Save/Load for caching.
type SummaryScore interface {
	Score
	Reset()
	ProcessSentence(s Sentence, deps *Deps) error
	Save(w io.Writer) error
	Load(r io.Reader) error
}

// Deps carries the already-computed values of a score's required sentence
// scores for the current line.
type Deps struct {
	values map[string]float64
}

// NewDeps creates an empty dependency value set.
func NewDeps() *Deps {
	return &Deps{values: make(map[string]float64)}
}

// Set records the value of a sentence score for the current line.
func (d *Deps) Set(s SentenceScore, value float64) {
	d.values[s.Name()] = value
}

// Value returns the current line's value of a required sentence score. A
// missing value means the evaluation order was violated, which is a
// programming error rather than a data fault.
func (d *Deps) Value(s SentenceScore) (float64, error) {
	v, ok := d.values[s.Name()]
	if !ok {
		return 0, errors.Errorf("value of required score %q not computed yet", s.Name())
	}
	return v, nil
}
