package score

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Options configures the scores a Registry hands out.
type Options struct {
	// CaseSensitive disables lowercasing in the word frequency summary.
	CaseSensitive bool
	// Epsilon substitutes for the frequency of out-of-vocabulary words.
	Epsilon float64
	// MaxNumBins caps the streaming histograms behind CDF scores.
	MaxNumBins int
}

// Registry maps selector strings to configured Score instances. Instances
// are memoized so every score that requires the same summary shares the same
// accumulator object.
type Registry struct {
	opts   Options
	scores map[string]Score
}

// NewRegistry creates a registry for the given options.
func NewRegistry(opts Options) *Registry {
	return &Registry{opts: opts, scores: make(map[string]Score)}
}

// Selectors returns the known selector strings, sorted.
func (r *Registry) Selectors() []string {
	out := []string{
		"sentence-length",
		"word-counts",
		"sentence-rarity-min-pooling",
		"sentence-rarity-max-pooling",
		"sentence-rarity-mean-pooling",
		"sentence-rarity-prod-pooling",
		"cdf(<selector>)",
	}
	sort.Strings(out)
	return out
}

// Get resolves a selector to a Score. An unknown selector is a configuration
// error.
func (r *Registry) Get(selector string) (Score, error) {
	if s, ok := r.scores[selector]; ok {
		return s, nil
	}

	s, err := r.build(selector)
	if err != nil {
		return nil, err
	}
	r.scores[selector] = s
	return s, nil
}

func (r *Registry) build(selector string) (Score, error) {
	switch selector {
	case "sentence-length":
		return SentenceLength{}, nil
	case "word-counts":
		return NewWordCounts(r.opts.CaseSensitive), nil
	}

	if pooling, ok := strings.CutPrefix(selector, "sentence-rarity-"); ok {
		pooling, ok = strings.CutSuffix(pooling, "-pooling")
		if ok {
			switch p := Pooling(pooling); p {
			case PoolingMin, PoolingMax, PoolingMean, PoolingProd:
				counts, err := r.Get("word-counts")
				if err != nil {
					return nil, err
				}
				return NewSentenceRarity(p, r.opts.Epsilon, counts.(*WordCounts)), nil
			}
		}
	}

	if inner, ok := strings.CutPrefix(selector, "cdf("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		if ok {
			base, err := r.Get(inner)
			if err != nil {
				return nil, err
			}
			sentence, ok := base.(SentenceScore)
			if !ok {
				return nil, errors.Errorf("cdf requires a sentence score, %q is a summary score", inner)
			}
			return NewCDFScore(sentence, NewScoreHistogram(sentence, r.opts.MaxNumBins)), nil
		}
	}

	return nil, errors.Errorf("unknown score selector: %q (known: %s)",
		selector, strings.Join(r.Selectors(), ", "))
}
