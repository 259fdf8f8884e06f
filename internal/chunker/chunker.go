// Package chunker splits page text into citation-tagged chunks.
package chunker

import (
	"fmt"
	"strings"

	"document-qa/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"
)

const DefaultChunkSize = 800

// Chunker splits pages recursively on paragraph, line, sentence, comma, word
// and character boundaries without overlap.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

func New(chunkSize int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(0),
			textsplitter.WithSeparators(models.ChunkSeparators),
		),
	}
}

// SplitText treats text as a one-page document.
func (c *Chunker) SplitText(text string) ([]models.Chunk, error) {
	return c.Split([]string{text})
}

// Split chunks every page in order. Pages are numbered from 1 and chunk
// indexes restart at 0 on each page; blank pages produce no chunks.
func (c *Chunker) Split(pages []string) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for i, page := range pages {
		pageNum := i + 1
		if strings.TrimSpace(page) == "" {
			continue
		}
		parts, err := c.splitter.SplitText(page)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", pageNum, err)
		}
		chunkIndex := 0
		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			chunks = append(chunks, models.Chunk{
				Text:       part,
				Page:       pageNum,
				ChunkIndex: chunkIndex,
			})
			chunkIndex++
		}
	}
	log.Debug().Int("pages", len(pages)).Int("chunks", len(chunks)).Msg("Chunked document")
	return chunks, nil
}
