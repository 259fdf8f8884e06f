// Package session sequences parsing, indexing and answering for a single
// uploaded document.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"document-qa/internal/chromemdb"
	"document-qa/internal/chunker"
	"document-qa/internal/models"
	"document-qa/internal/parser"
	"document-qa/internal/rag"

	"github.com/rs/zerolog/log"
)

type State int

const (
	NoDocument State = iota
	Indexing
	Ready
	AnswerPending
	AnswerReady
)

func (s State) String() string {
	switch s {
	case NoDocument:
		return "no document"
	case Indexing:
		return "indexing"
	case Ready:
		return "ready"
	case AnswerPending:
		return "answer pending"
	case AnswerReady:
		return "answer ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Embedder turns texts into vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// AnswerGenerator answers a question from retrieved chunks.
type AnswerGenerator interface {
	Answer(ctx context.Context, candidates []models.Chunk, question string) (*models.Answer, error)
}

// Session is not safe for concurrent use.
type Session struct {
	embedder  Embedder
	generator AnswerGenerator
	chunker   *chunker.Chunker
	topK      int

	state    State
	document *models.Document
	index    *chromemdb.Index
	last     *models.QueryResult
}

type Option func(*Session)

func WithChunkSize(size int) Option {
	return func(s *Session) {
		s.chunker = chunker.New(size)
	}
}

func WithTopK(k int) Option {
	return func(s *Session) {
		if k > 0 {
			s.topK = k
		}
	}
}

func New(embedder Embedder, generator AnswerGenerator, opts ...Option) *Session {
	s := &Session{
		embedder:  embedder,
		generator: generator,
		chunker:   chunker.New(chunker.DefaultChunkSize),
		topK:      chromemdb.DefaultTopK,
		state:     NoDocument,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State {
	return s.state
}

// Document returns the parsed pages of the current upload, or nil.
func (s *Session) Document() *models.Document {
	return s.document
}

// Chunks returns every indexed chunk of the current upload in document order.
func (s *Session) Chunks() []models.Chunk {
	if s.index == nil {
		return nil
	}
	return s.index.Chunks()
}

// LastResult returns the most recent answer, if the session is in AnswerReady.
func (s *Session) LastResult() *models.QueryResult {
	return s.last
}

// Upload replaces the current document with the parsed, chunked and embedded
// contents of data. On any failure the session is left without a document.
func (s *Session) Upload(ctx context.Context, filename string, data []byte) error {
	s.reset()
	s.state = Indexing

	index, doc, err := s.buildIndex(ctx, filename, data)
	if err != nil {
		s.reset()
		log.Error().Err(err).Str("file", filename).Msg("Failed to index document")
		return err
	}

	s.document = doc
	s.index = index
	s.state = Ready
	log.Info().
		Str("file", filename).
		Int("pages", len(doc.Pages)).
		Int("chunks", index.Len()).
		Msg("Document indexed")
	return nil
}

func (s *Session) buildIndex(ctx context.Context, filename string, data []byte) (*chromemdb.Index, *models.Document, error) {
	doc, err := parser.Parse(filename, data)
	if err != nil {
		return nil, nil, err
	}

	chunks, err := s.chunker.Split(doc.Pages)
	if err != nil {
		return nil, nil, err
	}
	if len(chunks) == 0 {
		return nil, nil, models.ErrEmptyIndex
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, nil, err
	}

	index, err := chromemdb.Build(ctx, chunks, vectors)
	if err != nil {
		return nil, nil, err
	}
	return index, doc, nil
}

// Ask answers query against the current document. Without a document or with
// a blank query it fails before any model is called. When showAll is set every
// retrieved chunk is returned as a source, otherwise only the cited ones.
func (s *Session) Ask(ctx context.Context, query string, showAll bool) (*models.QueryResult, error) {
	if s.index == nil {
		return nil, models.ErrMissingDocument
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.ErrMissingQuery
	}

	s.state = AnswerPending
	s.last = nil

	result, err := s.answer(ctx, query, showAll)
	if err != nil {
		s.state = Ready
		log.Error().Err(err).Str("query", query).Msg("Failed to answer question")
		return nil, err
	}

	s.last = result
	s.state = AnswerReady
	return result, nil
}

func (s *Session) answer(ctx context.Context, query string, showAll bool) (*models.QueryResult, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := s.index.Search(ctx, vector, s.topK)
	if err != nil {
		return nil, err
	}

	answer, err := s.generator.Answer(ctx, candidates, query)
	if err != nil {
		return nil, err
	}

	sources := candidates
	if !showAll {
		sources = rag.CitedChunks(candidates, answer.CitedSourceIDs)
	}
	return &models.QueryResult{
		Question:   query,
		Answer:     *answer,
		Candidates: candidates,
		Sources:    sources,
	}, nil
}

// Close discards the current document.
func (s *Session) Close() error {
	err := s.index.Close()
	s.index = nil
	s.document = nil
	s.last = nil
	s.state = NoDocument
	return err
}

func (s *Session) reset() {
	if err := s.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to discard previous document")
	}
}

// UserMessage converts an error returned by the session into a short message
// suitable for display.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrMissingDocument):
		return "Please upload a document!"
	case errors.Is(err, models.ErrMissingQuery):
		return "Please enter a question!"
	case errors.Is(err, models.ErrUnsupportedFormat):
		return "File type not supported!"
	case errors.Is(err, models.ErrDecode):
		return "Could not read the document. Is the file corrupt or encrypted?"
	case errors.Is(err, models.ErrEmptyIndex):
		return "The document produced no content. Scanned documents are not supported yet!"
	case errors.Is(err, models.ErrEmbeddingUnavailable):
		return "The embedding model is unavailable. Check that it is running and try again."
	case errors.Is(err, models.ErrGenerationFailed):
		return "The language model failed to answer. Please try again."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	default:
		return "Something went wrong: " + err.Error()
	}
}
