package rag

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"document-qa/internal/llmservice"
	"document-qa/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
)

var thinkTagRe = regexp.MustCompile(models.ThinkTag)

// Generator answers a question from retrieved chunks with a single model call.
type Generator struct {
	llm     llms.Model
	timeout time.Duration
}

type Option func(*Generator)

// WithTimeout bounds each model call. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.timeout = d
	}
}

func NewGenerator(llm llms.Model, opts ...Option) *Generator {
	g := &Generator{llm: llm}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Answer builds the stuff prompt for candidates and question, calls the model
// once and parses the reply. Failures are reported as models.ErrGenerationFailed
// and never retried.
func (g *Generator) Answer(ctx context.Context, candidates []models.Chunk, question string) (*models.Answer, error) {
	prompt := BuildPrompt(candidates, question)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := llmservice.GenerateText(ctx, g.llm, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", models.ErrGenerationFailed, time.Since(start).Round(time.Millisecond))
		}
		return nil, fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}

	text := StripThinking(raw)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: model returned no answer text", models.ErrGenerationFailed)
	}

	answer := ParseAnswer(text)
	answer.Raw = raw
	log.Debug().
		Dur("took", time.Since(start)).
		Int("candidates", len(candidates)).
		Strs("cited", answer.CitedSourceIDs).
		Msg("Generated answer")
	return &answer, nil
}

// BuildPrompt places every candidate, tagged with its source id, and the
// question into the stuff prompt.
func BuildPrompt(candidates []models.Chunk, question string) string {
	excerpts := make([]string, len(candidates))
	for i, c := range candidates {
		excerpts[i] = fmt.Sprintf(models.ExcerptTemplate, c.Text, c.SourceID())
	}
	return fmt.Sprintf(models.StuffPromptTemplate, question, strings.Join(excerpts, models.ExcerptSeparator))
}

// StripThinking removes <think> blocks emitted by reasoning models and the
// leading whitespace they leave. Trailing text is kept so an empty SOURCES
// section still carries its marker.
func StripThinking(text string) string {
	return strings.TrimLeft(thinkTagRe.ReplaceAllString(text, ""), " \t\r\n")
}

// ParseAnswer splits a reply on the SOURCES marker. The body is everything
// before the first marker and the citations are the comma separated ids after
// the last one. Without a marker the whole reply is the body.
func ParseAnswer(text string) models.Answer {
	first := strings.Index(text, models.SourcesMarker)
	if first < 0 {
		return models.Answer{Body: text, CitedSourceIDs: []string{}}
	}

	last := strings.LastIndex(text, models.SourcesMarker)
	tail := text[last+len(models.SourcesMarker):]

	cited := []string{}
	for _, token := range strings.Split(tail, models.SourcesSeparator) {
		if token = strings.TrimSpace(token); token != "" {
			cited = append(cited, token)
		}
	}
	return models.Answer{Body: text[:first], CitedSourceIDs: cited}
}

// CitedChunks keeps the candidates whose source id was cited, in candidate
// order. Cited ids that match no candidate are dropped.
func CitedChunks(candidates []models.Chunk, cited []string) []models.Chunk {
	keys := make(map[string]struct{}, len(cited))
	for _, id := range cited {
		keys[id] = struct{}{}
	}
	var out []models.Chunk
	for _, c := range candidates {
		if _, ok := keys[c.SourceID()]; ok {
			out = append(out, c)
		}
	}
	return out
}
