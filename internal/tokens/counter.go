package tokens

import (
	"log/slog"
	"math"
	"unicode/utf8"
)

// DefaultEncoding is the BPE vocabulary used when none is configured
const DefaultEncoding = "cl100k_base"

// Counter estimates how many model tokens a string occupies. Implementations
// are deterministic and safe for concurrent use.
type Counter interface {
	Count(text string) int
}

// New returns a BPE counter for encoding, falling back to the heuristic
// counter when the vocabulary cannot be loaded.
func New(encoding string) Counter {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	counter, err := NewBPECounter(encoding)
	if err != nil {
		slog.Warn("Falling back to heuristic token estimate", "encoding", encoding, "error", err)
		return NewHeuristicCounter()
	}
	return counter
}

// HeuristicCounter approximates tokens as runes divided by a fixed ratio
type HeuristicCounter struct {
	charsPerToken float64
}

// NewHeuristicCounter creates a counter calibrated at ~4 characters per token
func NewHeuristicCounter() *HeuristicCounter {
	return &HeuristicCounter{charsPerToken: 4.0}
}

// Count rounds up so any non-empty string costs at least one token
func (c *HeuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	return int(math.Ceil(float64(runes) / c.charsPerToken))
}
