// Package chunking splits cleaned document text into fixed-size windows so
// each embedding call sees a bounded input.
package chunking

import "fmt"

// ChunkParams configures the chunking algorithm. Sizes are in runes.
type ChunkParams struct {
	Size    int
	Overlap int
}

// DefaultChunkParams returns the window used by the embed stage.
func DefaultChunkParams() ChunkParams {
	return ChunkParams{
		Size:    1000,
		Overlap: 0,
	}
}

// Chunk is one window of the original text.
type Chunk struct {
	content string
	offset  int
}

// Content returns the chunk text.
func (c Chunk) Content() string { return c.content }

// Offset returns the rune offset of this chunk in the original content.
func (c Chunk) Offset() int { return c.offset }

// TextChunks holds the result of splitting content into windows.
type TextChunks struct {
	chunks []Chunk
}

// NewTextChunks splits content into consecutive windows of params.Size
// runes, each starting params.Size-params.Overlap runes after the previous
// one. The last window may be shorter. Empty content yields no chunks.
func NewTextChunks(content string, params ChunkParams) (TextChunks, error) {
	if params.Size <= 0 {
		return TextChunks{}, fmt.Errorf("size (%d) must be positive", params.Size)
	}
	if params.Overlap < 0 || params.Overlap >= params.Size {
		return TextChunks{}, fmt.Errorf("overlap (%d) must be in [0, size %d)", params.Overlap, params.Size)
	}

	runes := []rune(content)
	if len(runes) == 0 {
		return TextChunks{}, nil
	}

	step := params.Size - params.Overlap
	var chunks []Chunk
	for start := 0; start < len(runes); start += step {
		end := min(start+params.Size, len(runes))
		chunks = append(chunks, Chunk{content: string(runes[start:end]), offset: start})
		if end == len(runes) {
			break
		}
	}
	return TextChunks{chunks: chunks}, nil
}

// All returns every chunk in order.
func (t TextChunks) All() []Chunk { return t.chunks }

// Texts returns the chunk contents in order.
func (t TextChunks) Texts() []string {
	out := make([]string, len(t.chunks))
	for i, c := range t.chunks {
		out[i] = c.content
	}
	return out
}

// Len returns the number of chunks.
func (t TextChunks) Len() int { return len(t.chunks) }
