package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"floorchat-backend/generation"
	"floorchat-backend/intent"
	"floorchat-backend/livedata"
	"floorchat-backend/models"
	"floorchat-backend/prompt"
	"floorchat-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultGenerationTimeout bounds the model call of one turn.
	DefaultGenerationTimeout = 60 * time.Second
	// MaxTitleRunes is the length of a conversation title taken from its
	// first message.
	MaxTitleRunes = 80
	// DefaultConversationLimit caps conversation listings.
	DefaultConversationLimit = 50
)

var (
	ErrNoFactoryScope       = errors.New("caller is not associated with a factory")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrGenerationFailed     = generation.ErrGenerationFailed
)

// TurnError is returned once the user message of a turn has been stored.
// Retrying on ConversationID continues the same conversation.
type TurnError struct {
	ConversationID uuid.UUID
	Err            error
}

func (e *TurnError) Error() string { return e.Err.Error() }

func (e *TurnError) Unwrap() error { return e.Err }

// ConversationStore persists conversations, their messages and analytics
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListConversations(ctx context.Context, callerID uuid.UUID, limit int) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)
	RecordAnalytics(ctx context.Context, a *models.MessageAnalytics) error
}

// LiveDataSource fetches live production data for a classified question
type LiveDataSource interface {
	FetchClassified(ctx context.Context, scope livedata.Scope, c intent.Classification) *livedata.Context
}

// KnowledgeSource retrieves archival passages for a question
type KnowledgeSource interface {
	Retrieve(ctx context.Context, message string) []models.SourceChunk
}

// ResponseGenerator produces the answer for an assembled turn
type ResponseGenerator interface {
	Generate(ctx context.Context, messages []models.ChatMessage, sources []models.SourceChunk, systemPrompt string, live *livedata.Context) (*models.ChatResponse, error)
}

// ChatService runs chat turns end to end
type ChatService struct {
	conversations     ConversationStore
	liveData          LiveDataSource
	knowledge         KnowledgeSource
	generator         ResponseGenerator
	generationTimeout time.Duration
	logger            *zap.Logger
}

// ChatServiceOption is a functional option for ChatService
type ChatServiceOption func(*ChatService)

// WithConversationStore sets the conversation store
func WithConversationStore(store ConversationStore) ChatServiceOption {
	return func(s *ChatService) {
		s.conversations = store
	}
}

// WithLiveData sets the live data source
func WithLiveData(src LiveDataSource) ChatServiceOption {
	return func(s *ChatService) {
		s.liveData = src
	}
}

// WithKnowledge sets the knowledge source
func WithKnowledge(src KnowledgeSource) ChatServiceOption {
	return func(s *ChatService) {
		s.knowledge = src
	}
}

// WithGenerator sets the response generator
func WithGenerator(g ResponseGenerator) ChatServiceOption {
	return func(s *ChatService) {
		s.generator = g
	}
}

// WithGenerationTimeout bounds the model call
func WithGenerationTimeout(d time.Duration) ChatServiceOption {
	return func(s *ChatService) {
		if d > 0 {
			s.generationTimeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ChatServiceOption {
	return func(s *ChatService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewChatService creates a new chat service
func NewChatService(opts ...ChatServiceOption) *ChatService {
	s := &ChatService{
		generationTimeout: DefaultGenerationTimeout,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TurnRequest is one question from a caller
type TurnRequest struct {
	Message        string
	ConversationID *uuid.UUID
	Language       string
}

// TurnResult is the answer to a TurnRequest
type TurnResult struct {
	Answer             string            `json:"answer"`
	Citations          []models.Citation `json:"citations"`
	SuggestedQuestions []string          `json:"suggested_questions"`
	ConversationID     uuid.UUID         `json:"conversation_id"`
	NoEvidence         bool              `json:"no_evidence"`
	Language           string            `json:"language"`
}

// HandleChatTurn answers one question. The user message is stored before the
// model is called; the assistant message only once an answer exists.
func (s *ChatService) HandleChatTurn(ctx context.Context, caller *models.Caller, req TurnRequest) (*TurnResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if caller == nil || caller.FactoryID == nil {
		return nil, ErrNoFactoryScope
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	factoryID := *caller.FactoryID

	conv, err := s.conversation(ctx, caller, factoryID, req.ConversationID, message)
	if err != nil {
		return nil, err
	}

	stored, err := s.conversations.RecentMessages(ctx, conv.ID, prompt.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	history := make([]models.ChatMessage, 0, len(stored))
	for _, m := range stored {
		history = append(history, models.ChatMessage{Role: m.Role, Content: m.Content})
	}

	userMsg := &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        message,
	}
	if err := s.conversations.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	classification := intent.Classify(message)
	scope := livedata.Scope{FactoryID: &factoryID, Timezone: caller.Timezone}

	var (
		live    *livedata.Context
		sources []models.SourceChunk
		g       errgroup.Group
	)
	g.Go(func() error {
		live = s.liveData.FetchClassified(ctx, scope, classification)
		return nil
	})
	g.Go(func() error {
		if s.knowledge != nil {
			sources = s.knowledge.Retrieve(ctx, message)
		}
		return nil
	})
	_ = g.Wait()

	language := prompt.DetectLanguage(req.Language, message)
	system, messages := prompt.Assemble(history, live, sources, message, prompt.Profile{
		Role:        caller.Role,
		Features:    caller.Features,
		Language:    language,
		FactoryName: caller.FactoryName,
	})

	genCtx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	defer cancel()
	resp, err := s.generator.Generate(genCtx, messages, sources, system, live)
	if err != nil {
		s.logger.Error("chat turn failed",
			zap.String("conversation_id", conv.ID.String()),
			zap.Error(err))
		return nil, &TurnError{ConversationID: conv.ID, Err: err}
	}

	assistantMsg := &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Content:        resp.Content,
		Citations:      resp.Citations,
		NoEvidence:     resp.NoEvidence,
	}
	if resp.TokensUsed > 0 {
		tokens := resp.TokensUsed
		assistantMsg.TokensUsed = &tokens
	}
	if resp.Model != "" {
		model := resp.Model
		assistantMsg.Model = &model
	}
	if err := s.conversations.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, &TurnError{ConversationID: conv.ID, Err: fmt.Errorf("failed to store assistant message: %w", err)}
	}

	analytics := &models.MessageAnalytics{
		MessageID:       assistantMsg.ID,
		ConversationID:  conv.ID,
		FactoryID:       factoryID,
		AnswerLength:    utf8.RuneCountInString(resp.Content),
		CitationCount:   len(resp.Citations),
		NoEvidence:      resp.NoEvidence,
		Language:        language,
		Categories:      live.Categories(),
		LiveResultCount: liveResultCount(live),
		SourceCount:     len(sources),
	}
	if err := s.conversations.RecordAnalytics(ctx, analytics); err != nil {
		s.logger.Warn("failed to record chat analytics",
			zap.String("message_id", assistantMsg.ID.String()),
			zap.Error(err))
	}

	citations := resp.Citations
	if citations == nil {
		citations = []models.Citation{}
	}
	suggestions := resp.SuggestedQuestions
	if suggestions == nil {
		suggestions = []string{}
	}

	return &TurnResult{
		Answer:             resp.Content,
		Citations:          citations,
		SuggestedQuestions: suggestions,
		ConversationID:     conv.ID,
		NoEvidence:         resp.NoEvidence,
		Language:           language,
	}, nil
}

// ListConversations returns the caller's conversations, most recent first
func (s *ChatService) ListConversations(ctx context.Context, caller *models.Caller) ([]models.Conversation, error) {
	if s.conversations == nil {
		return nil, errors.New("conversation store not set")
	}
	convs, err := s.conversations.ListConversations(ctx, caller.ID, DefaultConversationLimit)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	return convs, nil
}

// ListMessages returns the full log of a conversation the caller owns
func (s *ChatService) ListMessages(ctx context.Context, caller *models.Caller, conversationID uuid.UUID) ([]models.Message, error) {
	if s.conversations == nil {
		return nil, errors.New("conversation store not set")
	}
	if _, err := s.ownedConversation(ctx, caller, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

func (s *ChatService) ready() error {
	switch {
	case s.conversations == nil:
		return errors.New("conversation store not set")
	case s.liveData == nil:
		return errors.New("live data source not set")
	case s.generator == nil:
		return errors.New("response generator not set")
	}
	return nil
}

// conversation loads the requested conversation or starts a new one titled
// after the first message.
func (s *ChatService) conversation(ctx context.Context, caller *models.Caller, factoryID uuid.UUID, id *uuid.UUID, message string) (*models.Conversation, error) {
	if id != nil {
		return s.ownedConversation(ctx, caller, *id)
	}

	conv := &models.Conversation{
		CallerID:  caller.ID,
		FactoryID: factoryID,
		Title:     Title(message),
	}
	if err := s.conversations.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

func (s *ChatService) ownedConversation(ctx context.Context, caller *models.Caller, id uuid.UUID) (*models.Conversation, error) {
	conv, err := s.conversations.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv.CallerID != caller.ID {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// Title returns the first MaxTitleRunes runes of message
func Title(message string) string {
	message = strings.Join(strings.Fields(message), " ")
	if utf8.RuneCountInString(message) <= MaxTitleRunes {
		return message
	}
	return string([]rune(message)[:MaxTitleRunes])
}

func liveResultCount(live *livedata.Context) int {
	if live == nil {
		return 0
	}
	return len(live.Results)
}
