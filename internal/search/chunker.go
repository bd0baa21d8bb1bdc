package search

import (
	"fmt"
	"strings"
)

// Default chunking parameters for long-document retrieval
const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
)

// Document is a long-form item eligible for chunked retrieval. Title and
// tags are prepended to every chunk so short windows keep document-level
// context for lexical matching.
type Document[T any] struct {
	ID      string
	Title   string
	Tags    []string
	Content string
	Payload T
}

// ChunkPayload wraps a document payload with the index of the chunk it was
// cut from.
type ChunkPayload[T any] struct {
	Doc        T
	ChunkIndex int
}

// ChunkText splits text into overlapping windows of chunkSize runes. Text
// that already fits in one window is returned as a single chunk. The overlap
// is clamped to [0, chunkSize-1] so the window always advances; the final
// chunk may be shorter than chunkSize. Every rune of the input is covered by
// at least one chunk.
func ChunkText(text string, chunkSize, chunkOverlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize - 1
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - chunkOverlap
	var chunks []string
	for start := 0; ; start += step {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// BuildDocChunks converts a document into a chunk corpus. Chunk ids are
// "<docID>#<chunkIndex>" and unique within the document; a document whose
// content fits one window yields exactly one "#0" chunk.
func BuildDocChunks[T any](doc Document[T], chunkSize, chunkOverlap int) []CorpusItem[ChunkPayload[T]] {
	header := docHeader(doc.Title, doc.Tags)
	bodies := ChunkText(doc.Content, chunkSize, chunkOverlap)

	items := make([]CorpusItem[ChunkPayload[T]], len(bodies))
	for i, body := range bodies {
		items[i] = CorpusItem[ChunkPayload[T]]{
			ID:      fmt.Sprintf("%s#%d", doc.ID, i),
			Text:    header + body,
			Payload: ChunkPayload[T]{Doc: doc.Payload, ChunkIndex: i},
		}
	}
	return items
}

// docHeader builds the context prefix shared by all chunks of a document.
func docHeader(title string, tags []string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n")
	}
	if len(tags) > 0 {
		b.WriteString(strings.Join(tags, " "))
		b.WriteString("\n")
	}
	return b.String()
}
