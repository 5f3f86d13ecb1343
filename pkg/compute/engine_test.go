package compute

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaplatanios/curriculum/pkg/score"
)

func writeCorpus(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600))
	return path
}

func newTestRegistry() *score.Registry {
	return score.NewRegistry(score.Options{Epsilon: 1e-3, MaxNumBins: 100})
}

func newTestEngine(t *testing.T, corpusDir, dataDir string, force bool) *Engine {
	t.Helper()
	e, err := NewEngine(corpusDir, dataDir, force)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestListCorpusFiles(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, dir, "b.txt", "x")
	writeCorpus(t, dir, "a.txt", "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0700))

	files, err := ListCorpusFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", filepath.Base(files[0]))
	assert.Equal(t, "b.txt", filepath.Base(files[1]))
}

func TestListCorpusFilesErrors(t *testing.T) {
	_, err := ListCorpusFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := writeCorpus(t, t.TempDir(), "f.txt", "x")
	_, err = ListCorpusFiles(file)
	assert.Error(t, err)
}

func TestEngineSentenceLength(t *testing.T) {
	corpus := t.TempDir()
	data := t.TempDir()
	writeCorpus(t, corpus, "corpus.txt", "a a b", "b c c c")

	root, err := newTestRegistry().Get("sentence-length")
	require.NoError(t, err)

	e := newTestEngine(t, corpus, data, false)
	require.NoError(t, e.Run(context.Background(), root))

	lines := readLines(t, e.cache.SentenceScorePath("corpus.txt", "sentence-length"))
	assert.Equal(t, []string{"2", "3"}, lines)
}

func TestEngineWordCountsSummary(t *testing.T) {
	corpus := t.TempDir()
	data := t.TempDir()
	writeCorpus(t, corpus, "corpus.txt", "a a b", "b c c c")

	root, err := newTestRegistry().Get("word-counts")
	require.NoError(t, err)

	e := newTestEngine(t, corpus, data, false)
	require.NoError(t, e.Run(context.Background(), root))

	lines := readLines(t, e.cache.SummaryScorePath("word-counts-lower"))
	assert.Equal(t, []string{"c\t3", "a\t2", "b\t2"}, lines)
}

func TestEngineRarityMinPooling(t *testing.T) {
	corpus := t.TempDir()
	data := t.TempDir()
	writeCorpus(t, corpus, "corpus.txt", "a a b", "b c c c")

	root, err := newTestRegistry().Get("sentence-rarity-min-pooling")
	require.NoError(t, err)

	e := newTestEngine(t, corpus, data, false)
	require.NoError(t, e.Run(context.Background(), root))

	lines := readLines(t, e.cache.SentenceScorePath("corpus.txt", "sentence-rarity-min-pooling"))
	require.Len(t, lines, 2)
	for _, line := range lines {
		v, err := strconv.ParseFloat(line, 64)
		require.NoError(t, err)
		assert.Greater(t, v, 0.0)
	}
}

func TestEngineOutOfVocabularyUsesEpsilon(t *testing.T) {
	// Build the vocabulary over one corpus, then reuse its cached summary
	// against a corpus containing an unseen word.
	vocabCorpus := t.TempDir()
	data := t.TempDir()
	writeCorpus(t, vocabCorpus, "corpus.txt", "a a b", "b c c c")

	reg := newTestRegistry()
	root, err := reg.Get("sentence-rarity-min-pooling")
	require.NoError(t, err)

	e := newTestEngine(t, vocabCorpus, data, false)
	require.NoError(t, e.Run(context.Background(), root))

	oovCorpus := t.TempDir()
	writeCorpus(t, oovCorpus, "oov.txt", "a zzz")

	e2 := newTestEngine(t, oovCorpus, data, false)
	require.NoError(t, e2.Run(context.Background(), root))

	lines := readLines(t, e2.cache.SentenceScorePath("oov.txt", "sentence-rarity-min-pooling"))
	require.Len(t, lines, 1)
	v, err := strconv.ParseFloat(lines[0], 64)
	require.NoError(t, err)
	// -log(epsilon) with epsilon=1e-3; the unseen word dominates min pooling.
	assert.InDelta(t, 6.907755278982137, v, 1e-9)
}

func TestEngineCDFChain(t *testing.T) {
	corpus := t.TempDir()
	data := t.TempDir()
	writeCorpus(t, corpus, "corpus.txt", "a", "a b", "a b c", "a b c d")

	root, err := newTestRegistry().Get("cdf(sentence-length)")
	require.NoError(t, err)

	e := newTestEngine(t, corpus, data, false)
	require.NoError(t, e.Run(context.Background(), root))

	assert.True(t, e.cache.Has(e.cache.SentenceScorePath("corpus.txt", "sentence-length")))
	assert.True(t, e.cache.Has(e.cache.SummaryScorePath("sentence-length-histogram")))

	lines := readLines(t, e.cache.SentenceScorePath("corpus.txt", "cdf(sentence-length)"))
	require.Len(t, lines, 4)
	prev := -1.0
	for _, line := range lines {
		v, err := strconv.ParseFloat(line, 64)
		require.NoError(t, err)
		assert.True(t, v >= 0 && v <= 1)
		assert.True(t, v >= prev, "cdf of an increasing score must not decrease")
		prev = v
	}
	assert.Equal(t, 1.0, prev)
}

func snapshotDir(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	out := make(map[string][]byte)
	for _, sub := range []string{sentenceScoresDir, summaryScoresDir} {
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		require.NoError(t, err)
		for _, e := range entries {
			b, err := os.ReadFile(filepath.Join(dir, sub, e.Name()))
			require.NoError(t, err)
			out[sub+"/"+e.Name()] = b
		}
	}
	return out
}

func TestEngineIdempotence(t *testing.T) {
	corpus := t.TempDir()
	data := t.TempDir()
	writeCorpus(t, corpus, "one.txt", "a a b", "b c c c")
	writeCorpus(t, corpus, "two.txt", "c b a")

	reg := newTestRegistry()
	root, err := reg.Get("cdf(sentence-rarity-prod-pooling)")
	require.NoError(t, err)

	e := newTestEngine(t, corpus, data, false)
	require.NoError(t, e.Run(context.Background(), root))
	first := snapshotDir(t, data)
	require.NotEmpty(t, first)

	e2 := newTestEngine(t, corpus, data, false)
	require.NoError(t, e2.Run(context.Background(), root))
	second := snapshotDir(t, data)

	assert.Equal(t, first, second)
}

func TestEngineCacheHitSkipsRecompute(t *testing.T) {
	corpus := t.TempDir()
	data := t.TempDir()
	writeCorpus(t, corpus, "corpus.txt", "a a b", "b c c c")

	e := newTestEngine(t, corpus, data, false)
	path := e.cache.SentenceScorePath("corpus.txt", "sentence-length")

	// A pre-existing cache file wins over recomputation: existence is the
	// whole cache-hit contract.
	require.NoError(t, os.WriteFile(path, []byte("41\n42\n"), 0600))

	root, err := newTestRegistry().Get("sentence-length")
	require.NoError(t, err)
	require.NoError(t, e.Run(context.Background(), root))

	assert.Equal(t, []string{"41", "42"}, readLines(t, path))
}

func TestEngineForceRecompute(t *testing.T) {
	corpus := t.TempDir()
	data := t.TempDir()
	writeCorpus(t, corpus, "corpus.txt", "a a b", "b c c c")

	e := newTestEngine(t, corpus, data, false)
	path := e.cache.SentenceScorePath("corpus.txt", "sentence-length")
	require.NoError(t, os.WriteFile(path, []byte("41\n42\n"), 0600))
	stale := filepath.Join(data, summaryScoresDir, "stale.score")
	require.NoError(t, os.WriteFile(stale, []byte("junk"), 0600))
	e.Close()

	root, err := newTestRegistry().Get("sentence-length")
	require.NoError(t, err)

	forced := newTestEngine(t, corpus, data, true)
	require.NoError(t, forced.Run(context.Background(), root))

	assert.Equal(t, []string{"2", "3"}, readLines(t, path))
	assert.NoFileExists(t, stale)
}

func TestEngineMalformedCacheFails(t *testing.T) {
	corpus := t.TempDir()
	data := t.TempDir()
	writeCorpus(t, corpus, "corpus.txt", "a a b", "b c c c")

	e := newTestEngine(t, corpus, data, false)
	path := e.cache.SentenceScorePath("corpus.txt", "sentence-length")

	tests := map[string]string{
		"non-numeric value": "2\nnot-a-number\n",
		"too few values":    "2\n",
		"too many values":   "2\n3\n4\n",
	}
	for name, content := range tests {
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		os.Remove(e.cache.SummaryScorePath("sentence-length-histogram"))

		root, err := newTestRegistry().Get("cdf(sentence-length)")
		require.NoError(t, err)

		err = e.Run(context.Background(), root)
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrMalformedCache, name)
	}
}

func TestEngineRecordsManifest(t *testing.T) {
	corpus := t.TempDir()
	data := t.TempDir()
	writeCorpus(t, corpus, "corpus.txt", "a a b", "b c c c")

	root, err := newTestRegistry().Get("sentence-rarity-max-pooling")
	require.NoError(t, err)

	e := newTestEngine(t, corpus, data, false)
	require.NoError(t, e.Run(context.Background(), root))

	entries, err := e.manifest.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byScore := make(map[string]Entry)
	for _, en := range entries {
		byScore[en.Score] = en
	}
	assert.Equal(t, "summary", byScore["word-counts-lower"].Kind)
	assert.Equal(t, "sentence", byScore["sentence-rarity-max-pooling"].Kind)
	assert.Equal(t, int64(2), byScore["sentence-rarity-max-pooling"].NumLines)
	assert.Equal(t, "corpus.txt", byScore["sentence-rarity-max-pooling"].CorpusFile)
}

func TestEngineEmptyCorpusDir(t *testing.T) {
	_, err := NewEngine(t.TempDir(), t.TempDir(), false)
	assert.Error(t, err)
}
