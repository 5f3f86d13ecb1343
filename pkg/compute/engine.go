// Package compute drives score evaluation over a corpus: it realizes a
// score plan by streaming corpus files, computing pending scores, and
// persisting results as cache files under the data directory.
package compute

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eaplatanios/curriculum/pkg/score"
)

// progressInterval is the number of lines between progress log entries
// during a corpus pass.
const progressInterval = 100000

// Engine computes and caches score values for a fixed corpus file list.
// Cache files written by earlier runs are reused by existence alone; Force
// deletes them all before scheduling.
type Engine struct {
	cache    *Cache
	manifest *Manifest
	files    []string
	force    bool

	// summary scores that reached their terminal Cached state this run,
	// keyed by name. Reads before that state are ordering violations.
	cached map[string]bool
}

// NewEngine creates an engine over the regular files of corpusDir, caching
// under dataDir.
func NewEngine(corpusDir, dataDir string, force bool) (*Engine, error) {
	files, err := ListCorpusFiles(corpusDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no corpus files in: %s", corpusDir)
	}

	cache, err := NewCache(dataDir)
	if err != nil {
		return nil, err
	}
	manifest, err := OpenManifest(filepath.Join(dataDir, ManifestFileName))
	if err != nil {
		return nil, err
	}

	return &Engine{
		cache:    cache,
		manifest: manifest,
		files:    files,
		force:    force,
		cached:   make(map[string]bool),
	}, nil
}

// Close releases the engine's manifest database.
func (e *Engine) Close() error {
	return e.manifest.Close()
}

// Run materializes root's per-sentence values for every corpus file,
// computing root's transitive requirements first. Results are the cache
// files themselves; nothing is returned.
func (e *Engine) Run(ctx context.Context, root score.Score) error {
	plan, err := score.NewPlan(root)
	if err != nil {
		return err
	}

	if e.force {
		log.Debug("recompute forced, clearing all cache files")
		if err := e.cache.Clear(); err != nil {
			return err
		}
		if err := e.manifest.Clear(); err != nil {
			return err
		}
	}

	log.Infof("computing score %q over %d corpus files (%d units)",
		root.Name(), len(e.files), len(plan.Units))

	for _, unit := range plan.Units {
		if unit.IsSummary() {
			if err := e.runSummary(ctx, unit.Summary); err != nil {
				return err
			}
			continue
		}
		if err := e.runBatch(ctx, unit.Batch); err != nil {
			return err
		}
	}
	return nil
}

// runSummary brings a summary score to its Cached state: deserialized from
// its cache file when present, otherwise accumulated in one pass over every
// corpus file and then serialized.
func (e *Engine) runSummary(ctx context.Context, s score.SummaryScore) error {
	if err := e.checkSummariesCached(s); err != nil {
		return err
	}

	path := e.cache.SummaryScorePath(s.Name())
	if !e.force && e.cache.Has(path) {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "failed to open summary cache: %s", path)
		}
		defer f.Close()
		if err := s.Load(f); err != nil {
			return errors.Wrapf(err, "failed to load summary score %q", s.Name())
		}
		e.cached[s.Name()] = true
		log.Debugf("summary score %q loaded from cache", s.Name())
		return nil
	}

	log.Infof("computing summary score %q", s.Name())
	s.Reset()

	var totalLines int64
	for _, file := range e.files {
		if err := ctx.Err(); err != nil {
			return err
		}
		lines, err := e.accumulateFile(file, s)
		if err != nil {
			return err
		}
		totalLines += lines
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create summary cache: %s", path)
	}
	if err := s.Save(f); err != nil {
		f.Close()
		os.Remove(path)
		return errors.Wrapf(err, "failed to write summary score %q", s.Name())
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "failed to close summary cache: %s", path)
	}

	e.cached[s.Name()] = true
	return e.manifest.Record(Entry{
		Score:    s.Name(),
		Kind:     "summary",
		NumLines: totalLines,
	})
}

// accumulateFile streams one corpus file through a summary score, feeding it
// the cached values of its required sentence scores line by line.
func (e *Engine) accumulateFile(file string, s score.SummaryScore) (int64, error) {
	readers, err := e.openReaders(file, s.RequiredSentenceScores())
	if err != nil {
		return 0, err
	}
	defer readers.close()

	var lines int64
	err = forEachLine(file, func(i int, line string) error {
		deps, err := readers.next()
		if err != nil {
			return err
		}
		if err := s.ProcessSentence(score.NewSentence(line), deps); err != nil {
			return errors.Wrapf(err, "summary score %q failed on %s line %d", s.Name(), file, i+1)
		}
		lines++
		if lines%progressInterval == 0 {
			log.Debugf("summary score %q: %d lines of %s", s.Name(), lines, file)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return lines, readers.verifyExhausted()
}

// runBatch computes a batch of sentence scores, processing independent
// corpus files concurrently. Each corpus file's cache files have exactly one
// writer.
func (e *Engine) runBatch(ctx context.Context, batch []score.SentenceScore) error {
	for _, s := range batch {
		if err := e.checkSummariesCached(s); err != nil {
			return err
		}
	}

	names := make([]string, len(batch))
	for i, s := range batch {
		names[i] = s.Name()
	}
	log.Debugf("sentence score batch: %v", names)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, file := range e.files {
		file := file
		g.Go(func() error {
			return e.scoreFile(ctx, file, batch)
		})
	}
	return g.Wait()
}

// scoreFile evaluates the batch members still missing a cache file for one
// corpus file, sharing a single sequential read of the file across all of
// them.
func (e *Engine) scoreFile(ctx context.Context, file string, batch []score.SentenceScore) error {
	var pending []score.SentenceScore
	pendingNames := make(map[string]bool)
	for _, s := range batch {
		if !e.cache.Has(e.cache.SentenceScorePath(file, s.Name())) {
			pending = append(pending, s)
			pendingNames[s.Name()] = true
		}
	}
	if len(pending) == 0 {
		log.Debugf("all batch scores cached for: %s", file)
		return nil
	}

	// Requirements computed in an earlier unit, or cached members of this
	// batch, are read from their cache files in lockstep with the corpus.
	// Pending members earlier in the batch are computed on the same line
	// before their dependents.
	var cachedReqs []score.SentenceScore
	seen := make(map[string]bool)
	for _, s := range pending {
		for _, req := range s.RequiredSentenceScores() {
			if pendingNames[req.Name()] || seen[req.Name()] {
				continue
			}
			seen[req.Name()] = true
			cachedReqs = append(cachedReqs, req)
		}
	}
	readers, err := e.openReaders(file, cachedReqs)
	if err != nil {
		return err
	}
	defer readers.close()

	writers := make([]*valueWriter, len(pending))
	for i, s := range pending {
		w, err := newValueWriter(e.cache.SentenceScorePath(file, s.Name()))
		if err != nil {
			for _, open := range writers[:i] {
				open.Abort()
			}
			return err
		}
		writers[i] = w
	}
	abort := func() {
		for _, w := range writers {
			w.Abort()
		}
	}

	log.Infof("scoring %s (%d pending scores)", file, len(pending))

	var lines int64
	err = forEachLine(file, func(i int, line string) error {
		deps, err := readers.next()
		if err != nil {
			return err
		}
		s := score.NewSentence(line)
		for j, sc := range pending {
			v, err := sc.ScoreSentence(s, deps)
			if err != nil {
				return errors.Wrapf(err, "score %q failed on %s line %d", sc.Name(), file, i+1)
			}
			deps.Set(sc, v)
			if err := writers[j].Write(v); err != nil {
				return err
			}
		}
		lines++
		if lines%progressInterval == 0 {
			log.Debugf("scored %d lines of %s", lines, file)
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		err = readers.verifyExhausted()
	}
	if err != nil {
		abort()
		return err
	}

	for _, w := range writers {
		if err := w.Close(); err != nil {
			abort()
			return err
		}
	}

	for _, s := range pending {
		err := e.manifest.Record(Entry{
			Score:      s.Name(),
			CorpusFile: filepath.Base(file),
			Kind:       "sentence",
			NumLines:   lines,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// checkSummariesCached asserts that every summary score s requires has
// reached its Cached state. Failing here means the evaluation order was
// violated, which a valid plan makes impossible.
func (e *Engine) checkSummariesCached(s score.Score) error {
	for _, req := range s.RequiredSummaryScores() {
		if !e.cached[req.Name()] {
			return errors.Errorf(
				"summary score %q required by %q is not computed yet, evaluation order violated",
				req.Name(), s.Name())
		}
	}
	return nil
}

// depReaders reads the cached values of a set of sentence scores in
// lockstep with a corpus file.
type depReaders struct {
	file    string
	scores  []score.SentenceScore
	readers []*valueReader
}

// openReaders opens one value reader per score for the given corpus file.
// A missing cache file here is an evaluation order violation.
func (e *Engine) openReaders(file string, scores []score.SentenceScore) (*depReaders, error) {
	d := &depReaders{file: file, scores: scores}
	for _, s := range scores {
		path := e.cache.SentenceScorePath(file, s.Name())
		if !e.cache.Has(path) {
			d.close()
			return nil, errors.Errorf(
				"sentence score %q has no cache file for %s, evaluation order violated",
				s.Name(), file)
		}
		r, err := newValueReader(path)
		if err != nil {
			d.close()
			return nil, err
		}
		d.readers = append(d.readers, r)
	}
	return d, nil
}

// next returns the dependency values for the next corpus line. A cache file
// ending before the corpus does means it was computed from different data.
func (d *depReaders) next() (*score.Deps, error) {
	deps := score.NewDeps()
	for i, r := range d.readers {
		v, err := r.Next()
		if err == io.EOF {
			return nil, errors.Wrapf(ErrMalformedCache,
				"%s: fewer values than lines in %s", d.scores[i].Name(), d.file)
		}
		if err != nil {
			return nil, err
		}
		deps.Set(d.scores[i], v)
	}
	return deps, nil
}

// verifyExhausted checks that every reader ran out exactly when the corpus
// did.
func (d *depReaders) verifyExhausted() error {
	for i, r := range d.readers {
		if _, err := r.Next(); err != io.EOF {
			return errors.Wrapf(ErrMalformedCache,
				"%s: more values than lines in %s", d.scores[i].Name(), d.file)
		}
	}
	return nil
}

func (d *depReaders) close() {
	for _, r := range d.readers {
		r.Close()
	}
}
