package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicCounter(t *testing.T) {
	c := NewHeuristicCounter()

	tests := []struct {
		text string
		want int
	}{
		{text: "", want: 0},
		{text: "a", want: 1},
		{text: "abcd", want: 1},
		{text: "abcde", want: 2},
		{text: "héllo wörld", want: 3},
		{text: strings.Repeat("x", 400), want: 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Count(tt.text), "Count(%q)", tt.text)
	}
}

func TestHeuristicCounter_Monotonic(t *testing.T) {
	c := NewHeuristicCounter()
	prev := 0
	for i := 0; i < 100; i++ {
		n := c.Count(strings.Repeat("y", i))
		assert.GreaterOrEqual(t, n, prev)
		prev = n
	}
}

func TestBPECounter(t *testing.T) {
	c, err := NewBPECounter(DefaultEncoding)
	require.NoError(t, err)
	assert.Equal(t, DefaultEncoding, c.Encoding())

	text := "# File: README.md\nHello, world! This is a small document.\n"
	first := c.Count(text)
	assert.Positive(t, first)
	assert.Equal(t, first, c.Count(text), "counting must be deterministic")
	assert.Zero(t, c.Count(""))

	// special-token markers inside source files are counted, not rejected
	assert.Positive(t, c.Count("<|endoftext|>"))

	// punctuation splits into its own tokens, unlike whitespace counting
	assert.Greater(t, c.Count("a, b, c."), 3)
}

func TestNew_UnknownEncodingFallsBack(t *testing.T) {
	c := New("no-such-encoding")
	_, ok := c.(*HeuristicCounter)
	assert.True(t, ok, "expected heuristic fallback, got %T", c)
}

func TestNew_DefaultEncoding(t *testing.T) {
	c := New("")
	bpe, ok := c.(*BPECounter)
	require.True(t, ok, "expected BPE counter, got %T", c)
	assert.Equal(t, DefaultEncoding, bpe.Encoding())
}
