package compute

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// ErrMalformedCache indicates a cache file whose content does not match the
// expected format or the corpus it was computed from. Malformed cache data
// is fatal for the affected score: silently consuming misaligned values
// would corrupt everything downstream.
var ErrMalformedCache = errors.New("malformed score cache file")

// maxLineSize caps the corpus line scanner buffer.
const maxLineSize = 16 * 1024 * 1024

// ListCorpusFiles returns the absolute paths of the regular files directly
// inside dir (non-recursive), sorted by name.
func ListCorpusFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat corpus dir: %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("corpus path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list corpus dir: %s", dir)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// forEachLine streams the file line by line, calling fn with the 0-based
// line index. The file is never materialized in memory.
func forEachLine(path string, fn func(i int, line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open: %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	i := 0
	for scanner.Scan() {
		if err := fn(i, scanner.Text()); err != nil {
			return err
		}
		i++
	}
	return errors.Wrapf(scanner.Err(), "failed to read: %s", path)
}

// valueReader streams the floats of a sentence score cache file, one per
// line.
type valueReader struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	line    int
}

func newValueReader(path string) (*valueReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open score cache: %s", path)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4*1024), 1024*1024)
	return &valueReader{path: path, file: f, scanner: scanner}, nil
}

// Next returns the next cached value, or io.EOF when the file is exhausted.
func (r *valueReader) Next() (float64, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return 0, errors.Wrapf(err, "failed to read score cache: %s", r.path)
		}
		return 0, io.EOF
	}
	r.line++
	v, err := strconv.ParseFloat(r.scanner.Text(), 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedCache, "%s line %d: %q", r.path, r.line, r.scanner.Text())
	}
	return v, nil
}

func (r *valueReader) Close() error {
	return r.file.Close()
}

// valueWriter writes the floats of a sentence score cache file, one per
// line. Abort removes the partial file so cache existence keeps implying
// validity.
type valueWriter struct {
	path string
	file *os.File
	buf  *bufio.Writer
}

func newValueWriter(path string) (*valueWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create score cache: %s", path)
	}
	return &valueWriter{path: path, file: f, buf: bufio.NewWriter(f)}, nil
}

func (w *valueWriter) Write(v float64) error {
	_, err := w.buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64) + "\n")
	return errors.Wrapf(err, "failed to write score cache: %s", w.path)
}

func (w *valueWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return errors.Wrapf(err, "failed to flush score cache: %s", w.path)
	}
	return errors.Wrapf(w.file.Close(), "failed to close score cache: %s", w.path)
}

func (w *valueWriter) Abort() {
	w.file.Close()
	os.Remove(w.path)
}
