package embedding

import (
	"context"
	"fmt"
	"strings"

	"document-qa/internal/config"
	"document-qa/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Service turns text into vectors through an external embedding model. Any
// failure is reported as models.ErrEmbeddingUnavailable.
type Service struct {
	embedder embeddings.Embedder
	model    string
}

func NewService(embedder embeddings.Embedder, model string) *Service {
	return &Service{embedder: embedder, model: model}
}

// New builds the embedder selected by LLMconfig.Provider.
func New(LLMconfig *config.LLMConfig) (*Service, error) {
	switch LLMconfig.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIEmbedder(LLMconfig)
	case config.ProviderOllama, "":
		return NewOllamaEmbedder(LLMconfig)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", LLMconfig.Provider)
	}
}

// NewOllamaEmbedder embeds through an Ollama server.
func NewOllamaEmbedder(LLMconfig *config.LLMConfig) (*Service, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        LLMconfig.BaseURL,
		"embedding_model": LLMconfig.Model,
	}).Msg("Creating ollama embedder")

	llm, err := ollama.New(
		ollama.WithServerURL(LLMconfig.BaseURL),
		ollama.WithModel(LLMconfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingUnavailable, err)
	}
	return fromClient(llm, LLMconfig)
}

// NewOpenAIEmbedder embeds through an OpenAI-compatible endpoint.
func NewOpenAIEmbedder(LLMconfig *config.LLMConfig) (*Service, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        LLMconfig.BaseURL,
		"embedding_model": LLMconfig.Model,
	}).Msg("Creating openai embedder")

	llm, err := openai.New(
		openai.WithBaseURL(LLMconfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(LLMconfig.Key, "Bearer ")),
		openai.WithEmbeddingModel(LLMconfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingUnavailable, err)
	}
	return fromClient(llm, LLMconfig)
}

func fromClient(client embeddings.EmbedderClient, LLMconfig *config.LLMConfig) (*Service, error) {
	opts := []embeddings.Option{}
	if LLMconfig.BatchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(LLMconfig.BatchSize))
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingUnavailable, err)
	}
	return NewService(embedder, LLMconfig.Model), nil
}

// EmbedDocuments returns one vector per text, all of the same dimension.
// Nothing is returned unless every text was embedded.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrEmbeddingUnavailable, s.model, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: %s returned %d vectors for %d texts", models.ErrEmbeddingUnavailable, s.model, len(vectors), len(texts))
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return nil, fmt.Errorf("%w: %s returned vector %d with dimension %d, expected %d", models.ErrEmbeddingUnavailable, s.model, i, len(v), dim)
		}
	}
	log.Debug().Int("texts", len(texts)).Int("dim", dim).Msg("Embedded documents")
	return vectors, nil
}

// EmbedQuery embeds a single interactive query.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrEmbeddingUnavailable, s.model, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: %s returned an empty query vector", models.ErrEmbeddingUnavailable, s.model)
	}
	return vector, nil
}
