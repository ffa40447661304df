package handlers

import (
	"context"
	"net/http"

	"floorchat-backend/models"
	"floorchat-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatService is what the chat handler needs from the service layer
type ChatService interface {
	HandleChatTurn(ctx context.Context, caller *models.Caller, req service.TurnRequest) (*service.TurnResult, error)
	ListConversations(ctx context.Context, caller *models.Caller) ([]models.Conversation, error)
	ListMessages(ctx context.Context, caller *models.Caller, conversationID uuid.UUID) ([]models.Message, error)
}

// ChatHandler handles HTTP requests for chat
type ChatHandler struct {
	chat ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message        string  `json:"message" binding:"required"`
	ConversationID *string `json:"conversation_id"`
	Language       string  `json:"language"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	caller, ok := CallerFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, CodeUnauthorized, "A valid API key is required")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "Request body must include a message")
		return
	}

	turn := service.TurnRequest{
		Message:  req.Message,
		Language: req.Language,
	}
	if req.ConversationID != nil && *req.ConversationID != "" {
		id, err := uuid.Parse(*req.ConversationID)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid conversation_id format")
			return
		}
		turn.ConversationID = &id
	}

	result, err := h.chat.HandleChatTurn(c.Request.Context(), caller, turn)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// ListConversations handles GET /api/conversations
func (h *ChatHandler) ListConversations(c *gin.Context) {
	caller, ok := CallerFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, CodeUnauthorized, "A valid API key is required")
		return
	}

	convs, err := h.chat.ListConversations(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    convs,
	})
}

// ListMessages handles GET /api/conversations/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	caller, ok := CallerFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, CodeUnauthorized, "A valid API key is required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid conversation ID format")
		return
	}

	msgs, err := h.chat.ListMessages(c.Request.Context(), caller, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    msgs,
	})
}
