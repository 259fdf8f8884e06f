package models

import (
	"encoding/json"
	"fmt"
)

// Chunk is a bounded span of a document page, the unit of retrieval and citation.
type Chunk struct {
	Text       string `json:"text"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
}

// SourceID returns the citation key "page-chunk_index".
func (c Chunk) SourceID() string {
	return SourceID(c.Page, c.ChunkIndex)
}

func SourceID(page, chunkIndex int) string {
	return fmt.Sprintf("%d-%d", page, chunkIndex)
}

// MarshalJSON adds the derived source_id to the encoded chunk.
func (c Chunk) MarshalJSON() ([]byte, error) {
	type chunk Chunk
	return json.Marshal(struct {
		chunk
		SourceID string `json:"source_id"`
	}{chunk(c), c.SourceID()})
}

// Document is the parsed text of one upload. DOCX and TXT have a single page.
type Document struct {
	Name   string   `json:"name"`
	Format string   `json:"format"`
	Pages  []string `json:"pages"`
}

// Answer is the parsed model response for one question.
type Answer struct {
	Body           string   `json:"body"`
	CitedSourceIDs []string `json:"cited_source_ids"`
	Raw            string   `json:"-"`
}

// QueryResult is everything shown for one question. Candidates are the
// retrieved chunks, nearest first; Sources is the subset to display.
type QueryResult struct {
	Question   string  `json:"question"`
	Answer     Answer  `json:"answer"`
	Candidates []Chunk `json:"-"`
	Sources    []Chunk `json:"sources"`
}
