package score

import (
	"io"
	"strings"

	"github.com/eaplatanios/curriculum/pkg/counter"
)

// WordCounts is a summary score that accumulates word frequencies over the
// whole corpus into a trie-backed counter.
type WordCounts struct {
	caseSensitive bool
	counter       *counter.Counter
}

// NewWordCounts creates an empty word frequency summary. When caseSensitive
// is false, words are lowercased before counting and lookup.
func NewWordCounts(caseSensitive bool) *WordCounts {
	return &WordCounts{
		caseSensitive: caseSensitive,
		counter:       counter.New(),
	}
}

// Name encodes the case configuration so the two variants never share a
// cache entry.
func (w *WordCounts) Name() string {
	if w.caseSensitive {
		return "word-counts"
	}
	return "word-counts-lower"
}

func (w *WordCounts) RequiredSentenceScores() []SentenceScore { return nil }
func (w *WordCounts) RequiredSummaryScores() []SummaryScore   { return nil }

func (w *WordCounts) Reset() {
	w.counter = counter.New()
}

func (w *WordCounts) ProcessSentence(s Sentence, _ *Deps) error {
	for _, word := range s.Words {
		w.counter.Insert(w.fold(word))
	}
	return nil
}

func (w *WordCounts) Save(out io.Writer) error {
	return w.counter.Save(out)
}

func (w *WordCounts) Load(in io.Reader) error {
	w.Reset()
	return w.counter.Load(in)
}

// Count returns the accumulated count of word, with the configured case
// folding applied.
func (w *WordCounts) Count(word string) uint64 {
	return w.counter.Count(w.fold(word))
}

// TotalCount returns the total number of words processed.
func (w *WordCounts) TotalCount() uint64 {
	return w.counter.TotalCount()
}

// Frequency returns the relative frequency of word in the corpus, 0 for
// out-of-vocabulary words or an empty corpus.
func (w *WordCounts) Frequency(word string) float64 {
	total := w.counter.TotalCount()
	if total == 0 {
		return 0
	}
	return float64(w.Count(word)) / float64(total)
}

func (w *WordCounts) fold(word string) string {
	if w.caseSensitive {
		return word
	}
	return strings.ToLower(word)
}
