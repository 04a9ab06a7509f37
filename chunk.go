package siteqa

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Chunk is a contiguous passage of a document's indexable text. Chunks are
// the retrieval unit of the index.
type Chunk struct {
	ID        string `json:"id"`
	SourceURL string `json:"sourceUrl"`
	Index     int    `json:"index"`

	// Start and End are character offsets into Document.Text(), End exclusive.
	Start int `json:"start"`
	End   int `json:"end"`

	Content string `json:"content"`
}

// ChunkID returns the stable identifier of the chunk at index within the
// document scraped from sourceURL.
func ChunkID(sourceURL string, index int) string {
	return fmt.Sprintf("%016x-%d", xxhash.Sum64String(sourceURL), index)
}

// Chunker splits documents into overlapping fixed-size passages using a
// sliding window over characters. A Chunker is immutable and safe for
// concurrent use.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker returns a Chunker emitting windows of size characters where
// consecutive windows share overlap characters.
// Returns ECONFIG if the sizes cannot produce a forward-moving window.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, Errorf(ECONFIG, "chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, Errorf(ECONFIG, "chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, Errorf(ECONFIG, "chunk overlap (%d) must be smaller than chunk size (%d)", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the window size in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of characters shared by consecutive windows.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits the document's indexable text into chunks. The final window
// may be shorter than the configured size. Whitespace-only windows are
// skipped and chunk indexes stay dense. An empty document yields no chunks.
func (c *Chunker) Chunk(doc *Document) []*Chunk {
	runes := []rune(doc.Text())
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []*Chunk
	for start := 0; start < n; start += step {
		end := min(start+c.size, n)
		content := string(runes[start:end])
		if strings.TrimSpace(content) != "" {
			index := len(chunks)
			chunks = append(chunks, &Chunk{
				ID:        ChunkID(doc.SourceURL, index),
				SourceURL: doc.SourceURL,
				Index:     index,
				Start:     start,
				End:       end,
				Content:   content,
			})
		}
		if end == n {
			break
		}
	}
	return chunks
}
