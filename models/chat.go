package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ChatRole identifies the author of a chat message
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is a single turn of conversation history passed to the model
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// Citation references a knowledge source used in an answer
type Citation struct {
	SourceID     uuid.UUID `json:"source_id"`
	Title        string    `json:"title"`
	Type         string    `json:"type"`
	SectionLabel string    `json:"section_label,omitempty"`
	PageNumber   *int      `json:"page_number,omitempty"`
	SourceURL    string    `json:"source_url,omitempty"`
	Snippet      string    `json:"snippet"`
}

// Citations represents a list of citations stored as JSONB
type Citations []Citation

// Value implements driver.Valuer for JSONB
func (c Citations) Value() (driver.Value, error) {
	if c == nil {
		return json.Marshal([]Citation{})
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB
func (c *Citations) Scan(value interface{}) error {
	if value == nil {
		*c = make(Citations, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*c = make(Citations, 0)
		return nil
	}

	if len(bytes) == 0 {
		*c = make(Citations, 0)
		return nil
	}

	return json.Unmarshal(bytes, c)
}

// ChatResponse is the post-processed output of one generation call
type ChatResponse struct {
	Content            string     `json:"content"`
	Citations          []Citation `json:"citations"`
	NoEvidence         bool       `json:"no_evidence"`
	SuggestedQuestions []string   `json:"suggested_questions"`
	TokensUsed         int        `json:"tokens_used"`
	Model              string     `json:"model"`
}

// Conversation represents a chat thread owned by a caller
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	CallerID  uuid.UUID `json:"caller_id"`
	FactoryID uuid.UUID `json:"factory_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message represents a persisted chat message
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           ChatRole  `json:"role"`
	Content        string    `json:"content"`
	Citations      Citations `json:"citations"`
	TokensUsed     *int      `json:"tokens_used,omitempty"`
	Model          *string   `json:"model,omitempty"`
	NoEvidence     bool      `json:"no_evidence"`
	CreatedAt      time.Time `json:"created_at"`
}

// MessageAnalytics captures per-answer quality metrics
type MessageAnalytics struct {
	ID              uuid.UUID `json:"id"`
	MessageID       uuid.UUID `json:"message_id"`
	ConversationID  uuid.UUID `json:"conversation_id"`
	FactoryID       uuid.UUID `json:"factory_id"`
	AnswerLength    int       `json:"answer_length"`
	CitationCount   int       `json:"citation_count"`
	NoEvidence      bool      `json:"no_evidence"`
	Language        string    `json:"language"`
	Categories      []string  `json:"categories"`
	LiveResultCount int       `json:"live_result_count"`
	SourceCount     int       `json:"source_count"`
	CreatedAt       time.Time `json:"created_at"`
}
