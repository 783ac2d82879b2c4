// File path: internal/ingest/parser.go
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/raglinehq/ragline/internal/artifact"
)

const (
	defaultChunkSize    = 512
	defaultChunkOverlap = 50
)

// Extractor converts a non-text document (pdf, docx) to plain text before
// chunking. The caller supplies one; without it those formats fail parsing.
type Extractor func(filename string, raw []byte) (string, error)

// Parser extracts plain text and splits it into overlapping chunks. Text
// formats read directly; binary formats go through the extractor hook.
type Parser struct {
	splitter textsplitter.RecursiveCharacter
	extract  Extractor
}

func NewParser() *Parser {
	return &Parser{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(defaultChunkSize),
			textsplitter.WithChunkOverlap(defaultChunkOverlap),
		),
	}
}

var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".json": true,
	".log":  true,
}

// Parse turns raw upload bytes into ordered chunks with character offsets.
func (p *Parser) Parse(filename string, raw []byte) ([]artifact.Chunk, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	parserName := "plaintext"
	var text string
	switch {
	case textExtensions[ext]:
		text = string(raw)
		if !utf8.ValidString(text) {
			return nil, "", fmt.Errorf("file %q is not valid UTF-8", filename)
		}
	case p.extract != nil:
		extracted, err := p.extract(filename, raw)
		if err != nil {
			return nil, "", fmt.Errorf("extract %s text: %w", ext, err)
		}
		text = extracted
		parserName = "extractor"
	default:
		return nil, "", fmt.Errorf("no text parser for %s files", ext)
	}
	pieces, err := p.splitter.SplitText(text)
	if err != nil {
		return nil, "", fmt.Errorf("split text: %w", err)
	}
	chunks := make([]artifact.Chunk, 0, len(pieces))
	searchFrom := 0
	for i, piece := range pieces {
		start := strings.Index(text[searchFrom:], piece)
		charStart, charEnd := 0, 0
		if start >= 0 {
			charStart = searchFrom + start
			charEnd = charStart + len(piece)
			// Overlapping chunks share text; advance past the start only.
			searchFrom = charStart + 1
		}
		chunks = append(chunks, artifact.Chunk{
			Text:       piece,
			Index:      i,
			TokenCount: estimateTokens(piece),
			CharStart:  charStart,
			CharEnd:    charEnd,
		})
	}
	return chunks, parserName, nil
}

// estimateTokens approximates the cl100k token count without a tokenizer
// dependency. Four characters per token is the usual heuristic for English.
func estimateTokens(text string) int {
	count := (utf8.RuneCountInString(text) + 3) / 4
	if count == 0 && text != "" {
		count = 1
	}
	return count
}
