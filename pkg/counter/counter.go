package counter

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// node is a single trie node. Children are keyed by the next byte of the
// word, so common prefixes share storage across the vocabulary.
type node struct {
	children map[byte]int32
	count    uint64
}

// Counter is a word frequency table backed by a byte trie stored in a flat
// node arena (nodes addressed by index, not pointers).
type Counter struct {
	nodes []node
	total uint64
}

// WordCount is a single (word, count) entry.
type WordCount struct {
	Word  string
	Count uint64
}

// New creates an empty Counter.
func New() *Counter {
	return &Counter{nodes: make([]node, 1)}
}

// Insert increments the count of word by 1.
func (c *Counter) Insert(word string) {
	c.InsertWithCount(word, 1)
}

// InsertWithCount increments the count of word by n.
func (c *Counter) InsertWithCount(word string, n uint64) {
	if n == 0 {
		return
	}
	id := int32(0)
	for i := 0; i < len(word); i++ {
		b := word[i]
		child, ok := c.nodes[id].children[b]
		if !ok {
			child = int32(len(c.nodes))
			c.nodes = append(c.nodes, node{})
			if c.nodes[id].children == nil {
				c.nodes[id].children = make(map[byte]int32, 1)
			}
			c.nodes[id].children[b] = child
		}
		id = child
	}
	c.nodes[id].count += n
	c.total += n
}

// Count returns the number of times word was inserted, 0 if never seen.
func (c *Counter) Count(word string) uint64 {
	id := int32(0)
	for i := 0; i < len(word); i++ {
		child, ok := c.nodes[id].children[word[i]]
		if !ok {
			return 0
		}
		id = child
	}
	return c.nodes[id].count
}

// TotalCount returns the sum of counts over all words. Tracked on insert,
// not recomputed by traversal.
func (c *Counter) TotalCount() uint64 {
	return c.total
}

// Words enumerates all entries with a non-zero count, in no particular order.
func (c *Counter) Words() []WordCount {
	var out []WordCount
	var walk func(id int32, prefix []byte)
	walk = func(id int32, prefix []byte) {
		n := &c.nodes[id]
		if n.count > 0 {
			out = append(out, WordCount{Word: string(prefix), Count: n.count})
		}
		for b, child := range n.children {
			walk(child, append(prefix, b))
		}
	}
	walk(0, nil)
	return out
}

// Save serializes the counter as one "word\tcount" line per distinct
// word, sorted by count descending (ties broken by word ascending so the
// output is deterministic).
func (c *Counter) Save(w io.Writer) error {
	words := c.Words()
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})

	bw := bufio.NewWriter(w)
	for _, wc := range words {
		if _, err := bw.WriteString(wc.Word); err != nil {
			return errors.Wrap(err, "failed to write word")
		}
		if _, err := bw.WriteString("\t" + strconv.FormatUint(wc.Count, 10) + "\n"); err != nil {
			return errors.Wrap(err, "failed to write count")
		}
	}
	return bw.Flush()
}

// Load rehydrates the counter from the Save format. Input line order
// is not significant: every entry is re-aggregated through InsertWithCount,
// so counts survive a round trip even if the file was not sorted.
func (c *Counter) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			continue
		}
		tab := strings.LastIndexByte(text, '\t')
		if tab < 0 {
			return errors.Errorf("malformed counter entry on line %d: %q", line, text)
		}
		n, err := strconv.ParseUint(text[tab+1:], 10, 64)
		if err != nil {
			return errors.Wrapf(err, "malformed count on line %d: %q", line, text)
		}
		c.InsertWithCount(text[:tab], n)
	}
	return errors.Wrap(scanner.Err(), "failed to read counter entries")
}
