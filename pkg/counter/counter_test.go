package counter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterCounts(t *testing.T) {
	c := New()
	for _, w := range []string{"a", "a", "b", "b", "c", "c", "c"} {
		c.Insert(w)
	}

	tests := map[string]uint64{
		"a":  2,
		"b":  2,
		"c":  3,
		"d":  0,
		"ab": 0,
	}
	for word, expected := range tests {
		assert.Equal(t, expected, c.Count(word), word)
	}
	assert.Equal(t, uint64(7), c.TotalCount())
}

func TestCounterSharedPrefixes(t *testing.T) {
	c := New()
	c.Insert("work")
	c.Insert("working")
	c.Insert("worked")
	c.Insert("work")

	assert.Equal(t, uint64(2), c.Count("work"))
	assert.Equal(t, uint64(1), c.Count("working"))
	assert.Equal(t, uint64(1), c.Count("worked"))
	assert.Equal(t, uint64(0), c.Count("wor"))
	assert.Equal(t, uint64(4), c.TotalCount())
	assert.Len(t, c.Words(), 3)
}

func TestCounterInsertWithCount(t *testing.T) {
	c := New()
	c.InsertWithCount("the", 10)
	c.InsertWithCount("the", 5)
	c.InsertWithCount("a", 0)

	assert.Equal(t, uint64(15), c.Count("the"))
	assert.Equal(t, uint64(0), c.Count("a"))
	assert.Equal(t, uint64(15), c.TotalCount())
}

func TestCounterWriteSortedByCount(t *testing.T) {
	c := New()
	c.InsertWithCount("rare", 1)
	c.InsertWithCount("common", 9)
	c.InsertWithCount("mid", 4)

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "common\t9", lines[0])
	assert.Equal(t, "mid\t4", lines[1])
	assert.Equal(t, "rare\t1", lines[2])
}

func TestCounterRoundTrip(t *testing.T) {
	c := New()
	words := []string{"a", "b", "a", "sentence", "sent", "sentence", "b", "a"}
	for _, w := range words {
		c.Insert(w)
	}

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	loaded := New()
	require.NoError(t, loaded.Load(&buf))

	for _, wc := range c.Words() {
		assert.Equal(t, wc.Count, loaded.Count(wc.Word), wc.Word)
	}
	assert.Equal(t, c.TotalCount(), loaded.TotalCount())
}

func TestCounterReadUnsortedInput(t *testing.T) {
	in := "rare\t1\ncommon\t9\nmid\t4\n"
	c := New()
	require.NoError(t, c.Load(strings.NewReader(in)))

	assert.Equal(t, uint64(9), c.Count("common"))
	assert.Equal(t, uint64(14), c.TotalCount())
}

func TestCounterReadMalformed(t *testing.T) {
	tests := map[string]string{
		"missing tab":       "word 7\n",
		"non-numeric count": "word\tseven\n",
	}
	for name, in := range tests {
		c := New()
		assert.Error(t, c.Load(strings.NewReader(in)), name)
	}
}
