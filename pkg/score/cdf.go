package score

import (
	"io"

	"github.com/eaplatanios/curriculum/pkg/histogram"
)

// ScoreHistogram is a summary score that accumulates the distribution of a
// base sentence score into a streaming histogram, so dependents can query
// the empirical CDF of that score over the corpus.
type ScoreHistogram struct {
	base SentenceScore
	hist *histogram.Histogram
}

// NewScoreHistogram creates a histogram summary over base, capped at
// maxNumBins bins.
func NewScoreHistogram(base SentenceScore, maxNumBins int) *ScoreHistogram {
	return &ScoreHistogram{base: base, hist: histogram.New(maxNumBins)}
}

func (h *ScoreHistogram) Name() string {
	return h.base.Name() + "-histogram"
}

func (h *ScoreHistogram) RequiredSentenceScores() []SentenceScore {
	return []SentenceScore{h.base}
}

func (h *ScoreHistogram) RequiredSummaryScores() []SummaryScore { return nil }

func (h *ScoreHistogram) Reset() {
	h.hist.Reset()
}

func (h *ScoreHistogram) ProcessSentence(_ Sentence, deps *Deps) error {
	v, err := deps.Value(h.base)
	if err != nil {
		return err
	}
	h.hist.Insert(v)
	return nil
}

func (h *ScoreHistogram) Save(w io.Writer) error {
	return h.hist.Save(w)
}

func (h *ScoreHistogram) Load(r io.Reader) error {
	return h.hist.Load(r)
}

// CDF estimates the fraction of corpus sentences whose base score is at most
// value.
func (h *ScoreHistogram) CDF(value float64) float64 {
	return h.hist.CDF(value)
}

// CDFScore normalizes a base sentence score through its empirical corpus
// CDF, mapping raw scores onto [0, 1].
type CDFScore struct {
	base SentenceScore
	hist *ScoreHistogram
}

// NewCDFScore creates the CDF-normalized form of base. The histogram summary
// must be the one accumulating base's values.
func NewCDFScore(base SentenceScore, hist *ScoreHistogram) *CDFScore {
	return &CDFScore{base: base, hist: hist}
}

func (c *CDFScore) Name() string {
	return "cdf(" + c.base.Name() + ")"
}

func (c *CDFScore) RequiredSentenceScores() []SentenceScore {
	return []SentenceScore{c.base}
}

func (c *CDFScore) RequiredSummaryScores() []SummaryScore {
	return []SummaryScore{c.hist}
}

func (c *CDFScore) ScoreSentence(_ Sentence, deps *Deps) (float64, error) {
	v, err := deps.Value(c.base)
	if err != nil {
		return 0, err
	}
	return c.hist.CDF(v), nil
}
