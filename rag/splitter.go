package rag

import (
	"fmt"
	"strings"
)

// RecursiveCharacterTextSplitter splits text on progressively finer
// separators until every chunk fits the chunk size. Defaults are sized for
// tweets (500/100) rather than long-form documents.
type RecursiveCharacterTextSplitter struct {
	separators   []string
	chunkSize    int
	chunkOverlap int
}

// SplitterOption configures the splitter.
type SplitterOption func(*RecursiveCharacterTextSplitter)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) SplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets the overlap carried between adjacent chunks.
func WithChunkOverlap(overlap int) SplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkOverlap = overlap
	}
}

// WithSeparators sets custom separators, coarsest first.
func WithSeparators(separators []string) SplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.separators = separators
	}
}

// NewRecursiveCharacterTextSplitter creates a splitter with tweet-sized defaults.
func NewRecursiveCharacterTextSplitter(opts ...SplitterOption) *RecursiveCharacterTextSplitter {
	s := &RecursiveCharacterTextSplitter{
		separators:   []string{"\n\n", "\n", " ", ""},
		chunkSize:    500,
		chunkOverlap: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SplitText splits text into chunks of at most chunkSize bytes.
func (s *RecursiveCharacterTextSplitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.splitRecursive(text, s.separators)
}

// SplitDocuments splits every document and tags each chunk with its position
// and parent document.
func (s *RecursiveCharacterTextSplitter) SplitDocuments(docs []Document) []Document {
	var chunks []Document
	for _, doc := range docs {
		textChunks := s.SplitText(doc.Content)
		for i, chunk := range textChunks {
			metadata := make(map[string]any, len(doc.Metadata)+3)
			for k, v := range doc.Metadata {
				metadata[k] = v
			}
			metadata["chunk_index"] = i
			metadata["chunk_total"] = len(textChunks)
			metadata["parent_id"] = doc.ID

			chunks = append(chunks, Document{
				ID:       fmt.Sprintf("%s_chunk_%d", doc.ID, i),
				Content:  chunk,
				Metadata: metadata,
			})
		}
	}
	return chunks
}

func (s *RecursiveCharacterTextSplitter) splitRecursive(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		return s.splitByWidth(text)
	}

	separator := separators[0]
	rest := separators[1:]

	var parts []string
	if separator == "" {
		return s.splitByWidth(text)
	}
	for _, part := range strings.Split(text, separator) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if len(part) <= s.chunkSize {
			parts = append(parts, part)
		} else {
			parts = append(parts, s.splitRecursive(part, rest)...)
		}
	}
	return s.merge(parts, separator)
}

// merge packs adjacent small parts back together up to the chunk size.
func (s *RecursiveCharacterTextSplitter) merge(parts []string, separator string) []string {
	joiner := separator
	if joiner == "" {
		joiner = " "
	}

	var merged []string
	var current string
	for _, part := range parts {
		switch {
		case current == "":
			current = part
		case len(current)+len(joiner)+len(part) <= s.chunkSize:
			current += joiner + part
		default:
			merged = append(merged, current)
			current = part
		}
	}
	if current != "" {
		merged = append(merged, current)
	}
	return merged
}

func (s *RecursiveCharacterTextSplitter) splitByWidth(text string) []string {
	step := s.chunkSize - s.chunkOverlap
	if step <= 0 {
		step = s.chunkSize
	}

	var chunks []string
	for i := 0; i < len(text); i += step {
		end := i + s.chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[i:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}
