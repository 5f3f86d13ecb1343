// Package histogram implements a bounded-memory streaming histogram: at most
// maxNumBins (mean, count) bins, with the closest adjacent pair merged
// whenever an insert pushes the bin count over the cap. Accuracy is traded
// for fixed memory, which keeps CDF estimation over arbitrarily long score
// streams cheap.
package histogram

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Bin is a cluster of inserted samples, summarized by their mean.
type Bin struct {
	Mean  float64
	Count uint64
}

// Histogram holds bins sorted by mean ascending.
type Histogram struct {
	maxNumBins int
	bins       []Bin
}

// New creates an empty histogram capped at maxNumBins bins.
func New(maxNumBins int) *Histogram {
	if maxNumBins < 1 {
		maxNumBins = 1
	}
	return &Histogram{maxNumBins: maxNumBins}
}

// Insert adds a single observation.
func (h *Histogram) Insert(value float64) {
	h.InsertBin(Bin{Mean: value, Count: 1})
}

// InsertBin inserts a pre-aggregated bin at its sorted position, merging
// adjacent bins as needed to stay within the cap.
func (h *Histogram) InsertBin(b Bin) {
	if b.Count == 0 {
		return
	}
	i := sort.Search(len(h.bins), func(i int) bool { return h.bins[i].Mean >= b.Mean })
	h.bins = append(h.bins, Bin{})
	copy(h.bins[i+1:], h.bins[i:])
	h.bins[i] = b

	for len(h.bins) > h.maxNumBins {
		h.mergeClosest()
	}
}

// mergeClosest merges the two adjacent bins with the smallest mean
// difference into one bin at their count-weighted mean. Ties go to the
// leftmost pair.
func (h *Histogram) mergeClosest() {
	if len(h.bins) < 2 {
		return
	}
	best := 0
	bestGap := h.bins[1].Mean - h.bins[0].Mean
	for i := 1; i < len(h.bins)-1; i++ {
		if gap := h.bins[i+1].Mean - h.bins[i].Mean; gap < bestGap {
			best, bestGap = i, gap
		}
	}

	a, b := h.bins[best], h.bins[best+1]
	total := a.Count + b.Count
	h.bins[best] = Bin{
		Mean:  (a.Mean*float64(a.Count) + b.Mean*float64(b.Count)) / float64(total),
		Count: total,
	}
	h.bins = append(h.bins[:best+1], h.bins[best+2:]...)
}

// CDF estimates the fraction of inserted samples that are <= value, using
// the standard triangular-density interpolation between the two bins
// bracketing value. Returns 0 left of the first bin mean and 1 at or right
// of the last.
func (h *Histogram) CDF(value float64) float64 {
	if len(h.bins) == 0 {
		return 0
	}
	if value < h.bins[0].Mean {
		return 0
	}
	if value >= h.bins[len(h.bins)-1].Mean {
		return 1
	}

	// bins[i].Mean <= value < bins[i+1].Mean
	i := sort.Search(len(h.bins), func(i int) bool { return h.bins[i].Mean > value }) - 1
	a, b := h.bins[i], h.bins[i+1]

	frac := (value - a.Mean) / (b.Mean - a.Mean)
	atValue := float64(a.Count) + (float64(b.Count)-float64(a.Count))*frac
	mass := (float64(a.Count) + atValue) / 2 * frac

	mass += float64(a.Count) / 2
	for j := 0; j < i; j++ {
		mass += float64(h.bins[j].Count)
	}
	return mass / float64(h.TotalCount())
}

// TotalCount returns the number of samples ever inserted.
func (h *Histogram) TotalCount() uint64 {
	var total uint64
	for _, b := range h.bins {
		total += b.Count
	}
	return total
}

// Bins returns a copy of the retained bins, sorted by mean ascending.
func (h *Histogram) Bins() []Bin {
	out := make([]Bin, len(h.bins))
	copy(out, h.bins)
	return out
}

// Reset discards all bins.
func (h *Histogram) Reset() {
	h.bins = h.bins[:0]
}

// Save serializes the histogram as one "mean\tcount" line per bin.
func (h *Histogram) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, b := range h.bins {
		line := strconv.FormatFloat(b.Mean, 'g', -1, 64) + "\t" + strconv.FormatUint(b.Count, 10) + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return errors.Wrap(err, "failed to write histogram bin")
		}
	}
	return bw.Flush()
}

// Load rehydrates the histogram from the Save format. Bins are fed
// through InsertBin, so input order does not matter and loading never
// exceeds the cap.
func (h *Histogram) Load(r io.Reader) error {
	h.Reset()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			continue
		}
		parts := strings.Split(text, "\t")
		if len(parts) != 2 {
			return errors.Errorf("malformed histogram bin on line %d: %q", line, text)
		}
		mean, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return errors.Wrapf(err, "malformed bin mean on line %d", line)
		}
		count, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return errors.Wrapf(err, "malformed bin count on line %d", line)
		}
		h.InsertBin(Bin{Mean: mean, Count: count})
	}
	return errors.Wrap(scanner.Err(), "failed to read histogram bins")
}
