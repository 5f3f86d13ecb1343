package compute

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	sentenceScoresDir = "sentence-scores"
	summaryScoresDir  = "summary-scores"
	scoreFileExt      = ".score"

	cacheDirMode = 0700
)

// Cache maps scores to their files under the data directory:
// sentence-scores/<corpusFileName>.<scoreName>.score holds one float per
// corpus line, summary-scores/<scoreName>.score holds a summary score's
// serialized state. A cache hit is file existence; content is trusted
// because score names are deterministic in score configuration.
type Cache struct {
	dir string
}

// NewCache creates the cache directories under dir if needed.
func NewCache(dir string) (*Cache, error) {
	for _, sub := range []string{sentenceScoresDir, summaryScoresDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), cacheDirMode); err != nil {
			return nil, errors.Wrapf(err, "failed to create cache dir: %s", sub)
		}
	}
	return &Cache{dir: dir}, nil
}

// SentenceScorePath returns the cache file for one (corpus file, score)
// pair.
func (c *Cache) SentenceScorePath(corpusFile, scoreName string) string {
	name := filepath.Base(corpusFile) + "." + scoreName + scoreFileExt
	return filepath.Join(c.dir, sentenceScoresDir, name)
}

// SummaryScorePath returns the cache file holding a summary score's state.
func (c *Cache) SummaryScorePath(scoreName string) string {
	return filepath.Join(c.dir, summaryScoresDir, scoreName+scoreFileExt)
}

// Has reports whether the cache file at path exists.
func (c *Cache) Has(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Clear deletes every cache file in both directories.
func (c *Cache) Clear() error {
	for _, sub := range []string{sentenceScoresDir, summaryScoresDir} {
		dir := filepath.Join(c.dir, sub)
		if err := os.RemoveAll(dir); err != nil {
			return errors.Wrapf(err, "failed to remove cache dir: %s", dir)
		}
		if err := os.MkdirAll(dir, cacheDirMode); err != nil {
			return errors.Wrapf(err, "failed to recreate cache dir: %s", dir)
		}
	}
	return nil
}
