package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"floorchat-backend/models"
	"floorchat-backend/repository"
	"floorchat-backend/service"
	"floorchat-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCallers struct {
	callers map[uuid.UUID]*models.Caller
	err     error
}

func (f *fakeCallers) GetByID(_ context.Context, id uuid.UUID) (*models.Caller, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.callers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

type fakeChat struct {
	result *service.TurnResult
	err    error
	got    service.TurnRequest
	caller *models.Caller
	msgs   []models.Message
}

func (f *fakeChat) HandleChatTurn(_ context.Context, caller *models.Caller, req service.TurnRequest) (*service.TurnResult, error) {
	f.caller = caller
	f.got = req
	return f.result, f.err
}

func (f *fakeChat) ListConversations(context.Context, *models.Caller) ([]models.Conversation, error) {
	return []models.Conversation{}, f.err
}

func (f *fakeChat) ListMessages(context.Context, *models.Caller, uuid.UUID) ([]models.Message, error) {
	return f.msgs, f.err
}

type testServer struct {
	engine *gin.Engine
	chat   *fakeChat
	caller *models.Caller
	apiKey string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	factory := uuid.New()
	caller := &models.Caller{ID: uuid.New(), Name: "Rahim", Role: "supervisor", FactoryID: &factory, APIKeyHash: string(hash)}

	chat := &fakeChat{}
	files, err := storage.NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)
	require.NoError(t, files.Upload(context.Background(), "knowledge/ab/policy.md", strings.NewReader("# Policy"), "text/markdown"))

	engine := Router{
		Chat:    NewChatHandler(chat),
		Files:   NewFileHandler(files, nil),
		Callers: &fakeCallers{callers: map[uuid.UUID]*models.Caller{caller.ID: caller}},
	}.Engine()

	return &testServer{
		engine: engine,
		chat:   chat,
		caller: caller,
		apiKey: FormatAPIKey(caller.ID, "s3cret"),
	}
}

func (s *testServer) do(method, path, key string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code           string `json:"code"`
		Message        string `json:"message"`
		ConversationID string `json:"conversation_id"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		key  string
	}{
		{"missing", ""},
		{"malformed", "not-a-key"},
		{"bad id", "xyz.s3cret"},
		{"unknown caller", FormatAPIKey(uuid.New(), "s3cret")},
		{"wrong secret", FormatAPIKey(s.caller.ID, "guess")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodGet, "/api/conversations", tt.key, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, CodeUnauthorized, env.Error.Code)
		})
	}
}

func TestAuth_LookupFailureIsInternal(t *testing.T) {
	s := newTestServer(t)
	s.engine = Router{
		Chat:    NewChatHandler(s.chat),
		Callers: &fakeCallers{err: fmt.Errorf("connection refused")},
	}.Engine()

	w := s.do(http.MethodGet, "/api/conversations", s.apiKey, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestChat_Success(t *testing.T) {
	s := newTestServer(t)
	convID := uuid.New()
	s.chat.result = &service.TurnResult{
		Answer:             "PO-123 is 30% finished.",
		Citations:          []models.Citation{},
		SuggestedQuestions: []string{"What blocks PO-123?"},
		ConversationID:     convID,
		Language:           "en",
	}

	w := s.do(http.MethodPost, "/api/chat", s.apiKey, gin.H{
		"message":         "How far is PO-123 from C&A?",
		"conversation_id": convID.String(),
		"language":        "en",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decode(t, w)
	assert.True(t, env.Success)
	var data service.TurnResult
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "PO-123 is 30% finished.", data.Answer)
	assert.Equal(t, convID, data.ConversationID)

	assert.Equal(t, s.caller.ID, s.chat.caller.ID)
	require.NotNil(t, s.chat.got.ConversationID)
	assert.Equal(t, convID, *s.chat.got.ConversationID)
	assert.Equal(t, "en", s.chat.got.Language)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		err    error
		status int
		code   string
	}{
		{"missing message", gin.H{}, nil, http.StatusBadRequest, CodeInvalidRequest},
		{"bad conversation id", gin.H{"message": "hi", "conversation_id": "nope"}, nil, http.StatusBadRequest, CodeInvalidRequest},
		{"no factory", gin.H{"message": "hi"}, service.ErrNoFactoryScope, http.StatusForbidden, CodeNoFactoryScope},
		{"unknown conversation", gin.H{"message": "hi"}, service.ErrConversationNotFound, http.StatusNotFound, CodeNotFound},
		{"empty message", gin.H{"message": " "}, service.ErrEmptyMessage, http.StatusBadRequest, CodeInvalidRequest},
		{"generation", gin.H{"message": "hi"}, fmt.Errorf("%w: timeout", service.ErrGenerationFailed), http.StatusBadGateway, CodeGenerationFailed},
		{"other", gin.H{"message": "hi"}, fmt.Errorf("db down"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.chat.err = tt.err

			w := s.do(http.MethodPost, "/api/chat", s.apiKey, tt.body)
			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestChat_FailedTurnReturnsConversationID(t *testing.T) {
	s := newTestServer(t)
	convID := uuid.New()
	s.chat.err = &service.TurnError{
		ConversationID: convID,
		Err:            fmt.Errorf("%w: deadline exceeded", service.ErrGenerationFailed),
	}

	w := s.do(http.MethodPost, "/api/chat", s.apiKey, gin.H{"message": "sewing output today"})
	require.Equal(t, http.StatusBadGateway, w.Code)
	env := decode(t, w)
	assert.Equal(t, CodeGenerationFailed, env.Error.Code)
	assert.Equal(t, convID.String(), env.Error.ConversationID)

	s.chat.err = service.ErrEmptyMessage
	w = s.do(http.MethodPost, "/api/chat", s.apiKey, gin.H{"message": "hi"})
	assert.Empty(t, decode(t, w).Error.ConversationID)
}

func TestListMessages(t *testing.T) {
	s := newTestServer(t)
	s.chat.msgs = []models.Message{{Role: models.RoleUser, Content: "hi"}}

	w := s.do(http.MethodGet, "/api/conversations/"+uuid.NewString()+"/messages", s.apiKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []models.Message
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &msgs))
	assert.Len(t, msgs, 1)

	w = s.do(http.MethodGet, "/api/conversations/bad/messages", s.apiKey, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.chat.err = service.ErrConversationNotFound
	w = s.do(http.MethodGet, "/api/conversations/"+uuid.NewString()+"/messages", s.apiKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetFile(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/files/knowledge/ab/policy.md", s.apiKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# Policy", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")

	w = s.do(http.MethodGet, "/api/files/knowledge/ab/missing.md", s.apiKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestParseAPIKey(t *testing.T) {
	id := uuid.New()
	gotID, secret, err := ParseAPIKey(FormatAPIKey(id, "abc.def"))
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, "abc.def", secret)

	_, _, err = ParseAPIKey(id.String() + ".")
	assert.Error(t, err)
}

func TestNewAPISecret(t *testing.T) {
	secret, hash, err := NewAPISecret()
	require.NoError(t, err)
	assert.Len(t, secret, 48)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)))
}
