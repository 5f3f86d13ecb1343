package score

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Pooling selects how per-word log frequencies combine into one sentence
// value.
type Pooling string

const (
	PoolingMin  Pooling = "min"
	PoolingMax  Pooling = "max"
	PoolingMean Pooling = "mean"
	PoolingProd Pooling = "prod"
)

// SentenceRarity scores a sentence by the negative pooled log frequency of
// its words, using corpus-wide frequencies from a WordCounts summary.
// Out-of-vocabulary words contribute epsilon instead of a zero frequency so
// the log stays finite.
type SentenceRarity struct {
	pooling Pooling
	epsilon float64
	counts  *WordCounts
}

// NewSentenceRarity creates a rarity score over the given word frequency
// summary. epsilon must be positive.
func NewSentenceRarity(pooling Pooling, epsilon float64, counts *WordCounts) *SentenceRarity {
	return &SentenceRarity{pooling: pooling, epsilon: epsilon, counts: counts}
}

func (r *SentenceRarity) Name() string {
	return fmt.Sprintf("sentence-rarity-%s-pooling", r.pooling)
}

func (r *SentenceRarity) RequiredSentenceScores() []SentenceScore { return nil }

func (r *SentenceRarity) RequiredSummaryScores() []SummaryScore {
	return []SummaryScore{r.counts}
}

func (r *SentenceRarity) ScoreSentence(s Sentence, _ *Deps) (float64, error) {
	if len(s.Words) == 0 {
		return 0, nil
	}

	logs := make([]float64, len(s.Words))
	for i, word := range s.Words {
		f := r.counts.Frequency(word)
		if f == 0 {
			f = r.epsilon
		}
		logs[i] = math.Log(f)
	}

	switch r.pooling {
	case PoolingMin:
		return -minFloat(logs), nil
	case PoolingMax:
		return -maxFloat(logs), nil
	case PoolingMean:
		// Mean of the frequencies themselves, computed in log space.
		return -(logSumExp(logs) - math.Log(float64(len(logs)))), nil
	case PoolingProd:
		return -sumFloat(logs), nil
	default:
		return 0, errors.Errorf("unknown pooling: %q", r.pooling)
	}
}

func minFloat(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxFloat(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func sumFloat(vs []float64) float64 {
	var s float64
	for _, v := range vs {
		s += v
	}
	return s
}

// logSumExp computes log(sum(exp(vs))) without overflow.
func logSumExp(vs []float64) float64 {
	m := maxFloat(vs)
	if math.IsInf(m, -1) {
		return m
	}
	var s float64
	for _, v := range vs {
		s += math.Exp(v - m)
	}
	return m + math.Log(s)
}
