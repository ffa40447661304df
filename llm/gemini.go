// Package llm adapts Gemini to the completion and embedding contracts used by
// the chat pipeline.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"floorchat-backend/models"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	DefaultChatModel      = "gemini-1.5-flash"
	DefaultEmbeddingModel = "text-embedding-004"
	// EmbeddingDimensions is the vector width stored in knowledge_chunks.
	EmbeddingDimensions = 768
)

var (
	ErrNoMessages    = errors.New("no messages to send")
	ErrEmptyResponse = errors.New("model returned empty content")
)

// Completion is the text of one model call plus its usage.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Model        string
}

// TotalTokens returns input plus output tokens.
func (c *Completion) TotalTokens() int {
	return c.InputTokens + c.OutputTokens
}

// Gemini implements chat completion and embeddings on a genai.Client.
type Gemini struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
	temperature    float32
	logger         *zap.Logger
}

// GeminiOption is a functional option for Gemini
type GeminiOption func(*Gemini)

// WithChatModel sets the completion model name
func WithChatModel(name string) GeminiOption {
	return func(g *Gemini) {
		if name != "" {
			g.chatModel = name
		}
	}
}

// WithEmbeddingModel sets the embedding model name
func WithEmbeddingModel(name string) GeminiOption {
	return func(g *Gemini) {
		if name != "" {
			g.embeddingModel = name
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) GeminiOption {
	return func(g *Gemini) {
		g.temperature = t
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) GeminiOption {
	return func(g *Gemini) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewClient creates a genai client authenticated with an API key.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// NewGemini wraps client
func NewGemini(client *genai.Client, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		client:         client,
		chatModel:      DefaultChatModel,
		embeddingModel: DefaultEmbeddingModel,
		temperature:    0.3,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ChatModel returns the configured completion model name.
func (g *Gemini) ChatModel() string {
	return g.chatModel
}

// Complete sends messages as a chat whose final entry must be the user turn.
// It makes exactly one request and does not retry.
func (g *Gemini) Complete(ctx context.Context, system string, messages []models.ChatMessage, maxTokens int) (*Completion, error) {
	history, last, err := splitTurns(messages)
	if err != nil {
		return nil, err
	}

	model := g.client.GenerativeModel(g.chatModel)
	model.SetTemperature(g.temperature)
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	text, err := g.responseText(resp)
	if err != nil {
		return nil, err
	}

	c := &Completion{Text: text, Model: g.chatModel}
	if u := resp.UsageMetadata; u != nil {
		c.InputTokens = int(u.PromptTokenCount)
		c.OutputTokens = int(u.CandidatesTokenCount)
	}
	return c, nil
}

// Embed returns the unit-normalized retrieval-query embedding of text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	return g.embed(ctx, text, genai.TaskTypeRetrievalQuery)
}

// EmbedDocument returns the unit-normalized retrieval-document embedding of text.
func (g *Gemini) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return g.embed(ctx, text, genai.TaskTypeRetrievalDocument)
}

func (g *Gemini) embed(ctx context.Context, text string, task genai.TaskType) ([]float32, error) {
	em := g.client.EmbeddingModel(g.embeddingModel)
	em.TaskType = task

	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("embedding response was empty")
	}
	if n := len(res.Embedding.Values); n != EmbeddingDimensions {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDimensions, n)
	}
	return Normalize(res.Embedding.Values), nil
}

func (g *Gemini) responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("model returned no candidates")
	}

	var b strings.Builder
	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop && cand.FinishReason != genai.FinishReasonUnspecified {
			g.logger.Warn("candidate finished early",
				zap.Int("candidate", i),
				zap.String("finish_reason", cand.FinishReason.String()))
		}
		if cand.Content == nil {
			continue
		}
		b.WriteString(partsText(cand.Content.Parts))
		// Only the first candidate is the answer.
		break
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

func partsText(parts []genai.Part) string {
	var b strings.Builder
	for _, p := range parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// splitTurns converts the conversation into genai history plus the final user text.
func splitTurns(messages []models.ChatMessage) ([]*genai.Content, string, error) {
	if len(messages) == 0 {
		return nil, "", ErrNoMessages
	}
	last := messages[len(messages)-1]
	if last.Role != models.RoleUser {
		return nil, "", fmt.Errorf("last message must be from the user, got %q", last.Role)
	}

	history := make([]*genai.Content, 0, len(messages)-1)
	for _, m := range messages[:len(messages)-1] {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return history, last.Content, nil
}

// Normalize scales v to unit length. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
