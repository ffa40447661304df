// Package generation makes the single model call for a turn and turns the raw
// text into a structured, citable answer.
package generation

import (
	"context"
	"errors"
	"fmt"

	"floorchat-backend/livedata"
	"floorchat-backend/llm"
	"floorchat-backend/models"

	"go.uber.org/zap"
)

// DefaultMaxOutputTokens bounds the model's reply.
const DefaultMaxOutputTokens = 1024

// ErrGenerationFailed wraps any failure of the model call.
var ErrGenerationFailed = errors.New("failed to generate response")

// Completer is a chat-completion provider.
type Completer interface {
	Complete(ctx context.Context, system string, messages []models.ChatMessage, maxTokens int) (*llm.Completion, error)
}

// Generator issues one completion per turn and post-processes the result.
type Generator struct {
	completer Completer
	maxTokens int
	logger    *zap.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithMaxOutputTokens sets the output bound
func WithMaxOutputTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator creates a Generator
func NewGenerator(completer Completer, opts ...Option) *Generator {
	g := &Generator{
		completer: completer,
		maxTokens: DefaultMaxOutputTokens,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate calls the model exactly once. A provider failure is returned
// wrapped in ErrGenerationFailed and no partial answer is produced.
func (g *Generator) Generate(ctx context.Context, messages []models.ChatMessage, sources []models.SourceChunk, systemPrompt string, live *livedata.Context) (*models.ChatResponse, error) {
	completion, err := g.completer.Complete(ctx, systemPrompt, messages, g.maxTokens)
	if err != nil {
		g.logger.Error("generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	resp := Process(completion.Text, sources, live)
	resp.TokensUsed = completion.TotalTokens()
	resp.Model = completion.Model

	g.logger.Debug("generation complete",
		zap.String("model", completion.Model),
		zap.Int("input_tokens", completion.InputTokens),
		zap.Int("output_tokens", completion.OutputTokens),
		zap.Int("citations", len(resp.Citations)),
		zap.Bool("no_evidence", resp.NoEvidence))
	return resp, nil
}
