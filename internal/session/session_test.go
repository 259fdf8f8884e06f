package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"document-qa/internal/models"
)

// fakeEmbedder maps text to a small vector keyed on a few words.
type fakeEmbedder struct {
	docCalls   int
	queryCalls int
	err        error
}

func vectorFor(text string) []float32 {
	text = strings.ToLower(text)
	v := []float32{0.01, 0.01, 0.01}
	if strings.Contains(text, "warranty") {
		v[0] = 1
	}
	if strings.Contains(text, "return") {
		v[1] = 1
	}
	if strings.Contains(text, "support") {
		v[2] = 1
	}
	return v
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.docCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vectorFor(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.queryCalls++
	if f.err != nil {
		return nil, f.err
	}
	return vectorFor(text), nil
}

type fakeGenerator struct {
	calls      int
	cite       []string
	err        error
	candidates []models.Chunk
}

func (f *fakeGenerator) Answer(ctx context.Context, candidates []models.Chunk, question string) (*models.Answer, error) {
	f.calls++
	f.candidates = candidates
	if f.err != nil {
		return nil, f.err
	}
	return &models.Answer{Body: "answer to " + question, CitedSourceIDs: f.cite}, nil
}

const sampleText = "The warranty lasts two years.\n\nReturns are accepted within 30 days.\n\nSupport is available on weekdays."

func TestAsk_WithoutDocument(t *testing.T) {
	emb, gen := &fakeEmbedder{}, &fakeGenerator{}
	s := New(emb, gen)

	_, err := s.Ask(context.Background(), "anything?", false)
	if !errors.Is(err, models.ErrMissingDocument) {
		t.Fatalf("expected ErrMissingDocument, got %v", err)
	}
	if emb.docCalls+emb.queryCalls != 0 || gen.calls != 0 {
		t.Errorf("no model should be called: embed=%d/%d generate=%d", emb.docCalls, emb.queryCalls, gen.calls)
	}
	if UserMessage(err) != "Please upload a document!" {
		t.Errorf("unexpected message: %q", UserMessage(err))
	}
}

func TestUpload_UnsupportedFormat(t *testing.T) {
	emb := &fakeEmbedder{}
	s := New(emb, &fakeGenerator{})

	err := s.Upload(context.Background(), "data.csv", []byte("a,b\n1,2\n"))
	if !errors.Is(err, models.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if s.State() != NoDocument || s.Document() != nil || s.Chunks() != nil {
		t.Errorf("no index should be built, state=%s", s.State())
	}
	if emb.docCalls != 0 {
		t.Error("embedder called for unsupported file")
	}
	if UserMessage(err) != "File type not supported!" {
		t.Errorf("unexpected message: %q", UserMessage(err))
	}
}

func TestUpload_EmptyDocument(t *testing.T) {
	s := New(&fakeEmbedder{}, &fakeGenerator{})

	err := s.Upload(context.Background(), "blank.txt", []byte("  \n\n \n"))
	if !errors.Is(err, models.ErrEmptyIndex) {
		t.Fatalf("expected ErrEmptyIndex, got %v", err)
	}
	if s.State() != NoDocument {
		t.Errorf("expected no document, got %s", s.State())
	}
}

func TestUpload_EmbeddingFailureResets(t *testing.T) {
	emb := &fakeEmbedder{err: models.ErrEmbeddingUnavailable}
	s := New(emb, &fakeGenerator{})

	err := s.Upload(context.Background(), "doc.txt", []byte(sampleText))
	if !errors.Is(err, models.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if s.State() != NoDocument || s.Document() != nil {
		t.Errorf("failed upload left state %s", s.State())
	}
}

func TestAsk_CitedSources(t *testing.T) {
	emb := &fakeEmbedder{}
	gen := &fakeGenerator{cite: []string{"1-0", "9-9"}}
	s := New(emb, gen, WithChunkSize(40))

	if err := s.Upload(context.Background(), "doc.txt", []byte(sampleText)); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if s.State() != Ready {
		t.Fatalf("expected ready, got %s", s.State())
	}
	if len(s.Chunks()) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(s.Chunks()))
	}

	result, err := s.Ask(context.Background(), "  How long is the warranty?  ", false)
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if s.State() != AnswerReady || s.LastResult() != result {
		t.Errorf("expected answer ready, got %s", s.State())
	}
	if result.Question != "How long is the warranty?" {
		t.Errorf("query not trimmed: %q", result.Question)
	}
	if len(result.Candidates) != 3 || result.Candidates[0].SourceID() != "1-0" {
		t.Errorf("unexpected candidates: %+v", result.Candidates)
	}
	if len(result.Sources) != 1 || result.Sources[0].SourceID() != "1-0" {
		t.Errorf("expected only the cited chunk, got %+v", result.Sources)
	}
	if !strings.Contains(result.Sources[0].Text, "warranty") {
		t.Errorf("wrong source text: %q", result.Sources[0].Text)
	}
}

func TestAsk_ShowAllChunks(t *testing.T) {
	gen := &fakeGenerator{}
	s := New(&fakeEmbedder{}, gen, WithChunkSize(40), WithTopK(2))
	if err := s.Upload(context.Background(), "doc.txt", []byte(sampleText)); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	result, err := s.Ask(context.Background(), "Can I return it?", true)
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if len(result.Sources) != 2 || len(gen.candidates) != 2 {
		t.Errorf("expected top 2 shown, got %d sources / %d candidates", len(result.Sources), len(gen.candidates))
	}
	if result.Sources[0].SourceID() != "1-1" {
		t.Errorf("expected nearest chunk first, got %s", result.Sources[0].SourceID())
	}
}

func TestAsk_BlankQuery(t *testing.T) {
	emb, gen := &fakeEmbedder{}, &fakeGenerator{}
	s := New(emb, gen)
	if err := s.Upload(context.Background(), "doc.txt", []byte(sampleText)); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	_, err := s.Ask(context.Background(), "   ", false)
	if !errors.Is(err, models.ErrMissingQuery) {
		t.Fatalf("expected ErrMissingQuery, got %v", err)
	}
	if emb.queryCalls != 0 || gen.calls != 0 {
		t.Error("no model should be called for a blank query")
	}
	if s.State() != Ready {
		t.Errorf("expected ready, got %s", s.State())
	}
}

func TestAsk_GenerationFailureKeepsIndex(t *testing.T) {
	gen := &fakeGenerator{err: models.ErrGenerationFailed}
	s := New(&fakeEmbedder{}, gen)
	if err := s.Upload(context.Background(), "doc.txt", []byte(sampleText)); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if _, err := s.Ask(context.Background(), "warranty?", false); !errors.Is(err, models.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if s.State() != Ready || s.LastResult() != nil {
		t.Errorf("expected ready with no result, got %s", s.State())
	}

	gen.err = nil
	if _, err := s.Ask(context.Background(), "warranty?", false); err != nil {
		t.Errorf("retry by user failed: %v", err)
	}
}

func TestUpload_ReplacesDocument(t *testing.T) {
	s := New(&fakeEmbedder{}, &fakeGenerator{})
	if err := s.Upload(context.Background(), "first.txt", []byte(sampleText)); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if err := s.Upload(context.Background(), "second.txt", []byte("Only support here.")); err != nil {
		t.Fatalf("second upload failed: %v", err)
	}
	if s.Document().Name != "second.txt" {
		t.Errorf("document not replaced: %s", s.Document().Name)
	}
	if len(s.Chunks()) != 1 {
		t.Errorf("expected 1 chunk after replace, got %d", len(s.Chunks()))
	}

	if err := s.Upload(context.Background(), "third.csv", []byte("x")); err == nil {
		t.Fatal("expected failure")
	}
	if s.Document() != nil || s.State() != NoDocument {
		t.Error("failed upload should discard the previous document")
	}
}

func TestClose(t *testing.T) {
	s := New(&fakeEmbedder{}, &fakeGenerator{})
	if err := s.Close(); err != nil {
		t.Fatalf("close without document: %v", err)
	}
	if err := s.Upload(context.Background(), "doc.txt", []byte(sampleText)); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := s.Ask(context.Background(), "warranty?", false); !errors.Is(err, models.ErrMissingDocument) {
		t.Errorf("expected ErrMissingDocument after close, got %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{models.ErrMissingQuery, "Please enter a question!"},
		{models.ErrEmptyIndex, "The document produced no content. Scanned documents are not supported yet!"},
		{errors.New("boom"), "Something went wrong: boom"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	if AnswerPending.String() != "answer pending" || State(42).String() != "state(42)" {
		t.Error("unexpected state names")
	}
}
