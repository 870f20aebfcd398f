package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"
)

var loaderOnce sync.Once

// BPECounter counts tokens with a tiktoken vocabulary
type BPECounter struct {
	mu       sync.Mutex
	encoding string
	enc      *tiktoken.Tiktoken
}

// NewBPECounter loads the named vocabulary from the embedded offline loader,
// so no network access is needed.
func NewBPECounter(encoding string) (*BPECounter, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktokenloader.NewOfflineLoader())
	})

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encoding, err)
	}

	return &BPECounter{
		encoding: encoding,
		enc:      enc,
	}, nil
}

// Encoding returns the vocabulary name
func (c *BPECounter) Encoding() string {
	return c.encoding
}

// Count encodes text treating special-token markers as ordinary text
func (c *BPECounter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}
