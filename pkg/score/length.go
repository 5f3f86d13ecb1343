package score

// SentenceLength scores a sentence by its length, measured as the number of
// word boundaries: a sentence of n words scores n-1, and an empty sentence
// scores 0.
type SentenceLength struct{}

func (SentenceLength) Name() string                            { return "sentence-length" }
func (SentenceLength) RequiredSentenceScores() []SentenceScore { return nil }
func (SentenceLength) RequiredSummaryScores() []SummaryScore   { return nil }

func (SentenceLength) ScoreSentence(s Sentence, _ *Deps) (float64, error) {
	if len(s.Words) == 0 {
		return 0, nil
	}
	return float64(len(s.Words) - 1), nil
}
