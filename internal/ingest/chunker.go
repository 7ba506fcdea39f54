package ingest

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize bounds chunk length for embedding context limits.
	DefaultChunkSize = 5000
	// DefaultChunkOverlap is the character overlap between consecutive chunks.
	DefaultChunkOverlap = 200
	// MinSectionLength is the floor below which cleaned sections are dropped
	// rather than chunked.
	MinSectionLength = 50
)

// Chunk is a bounded span of cleaned section text with citation metadata.
type Chunk struct {
	Content    string `json:"content"`
	Chapter    string `json:"chapter"`
	Section    string `json:"section"`
	ChapterURL string `json:"chapter_url"`
	ChapterID  string `json:"chapter_id"`
}

var sentenceBreaks = []string{". ", ".\n", "! ", "? "}

// ChunkText splits text into overlapping chunks of at most max characters.
// Text that already fits is returned as a single chunk unchanged. Windows are
// cut at the last paragraph break, failing that the last sentence-ending
// punctuation followed by whitespace, failing that hard at the window edge.
// Consecutive chunks overlap by up to overlap characters of source text.
func ChunkText(text string, max, overlap int) []string {
	if max <= 0 {
		max = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if len(text) <= max {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + max
		if end < len(text) {
			window := text[start:end]
			if p := strings.LastIndex(window, "\n\n"); p != -1 {
				end = start + p + 2
			} else {
				cut := -1
				for _, sep := range sentenceBreaks {
					if i := strings.LastIndex(window, sep); i > cut {
						cut = i
					}
				}
				if cut != -1 {
					end = start + cut + 2
				} else {
					// No safe break point in the window; cut hard, but never
					// inside a multi-byte rune.
					for end > start && !utf8.RuneStart(text[end]) {
						end--
					}
				}
			}
		} else {
			end = len(text)
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(text) {
			break
		}
		next := end - overlap
		if next <= start {
			// Overlap would rewind past the cut we just made; advance to the
			// cut point instead so the walk always terminates.
			next = end
		}
		start = next
	}
	return chunks
}

// ChunkDocument cleans and chunks every section of a chapter, dropping
// sections whose cleaned content falls below MinSectionLength.
func ChunkDocument(doc Document, max, overlap int) []Chunk {
	var chunks []Chunk
	for _, section := range ExtractSections(doc.Body) {
		cleaned := CleanMarkdown(section.Content())
		if len(cleaned) < MinSectionLength {
			continue
		}
		for _, content := range ChunkText(cleaned, max, overlap) {
			chunks = append(chunks, Chunk{
				Content:    content,
				Chapter:    doc.Title,
				Section:    section.Title,
				ChapterURL: doc.URL,
				ChapterID:  doc.ID,
			})
		}
	}
	return chunks
}
