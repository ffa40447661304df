package handlers

import (
	"errors"
	"net/http"

	"floorchat-backend/repository"
	"floorchat-backend/service"
	"floorchat-backend/storage"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the error envelope
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNoFactoryScope   = "NO_FACTORY_SCOPE"
	CodeNotFound         = "NOT_FOUND"
	CodeGenerationFailed = "GENERATION_FAILED"
	CodeInternal         = "INTERNAL_ERROR"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps a service error to its status and code. Errors
// raised after the user message was stored carry the conversation id.
func respondServiceError(c *gin.Context, err error) {
	status, code, message := serviceErrorStatus(err)
	body := gin.H{
		"code":    code,
		"message": message,
	}
	var turnErr *service.TurnError
	if errors.As(err, &turnErr) {
		body["conversation_id"] = turnErr.ConversationID.String()
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   body,
	})
}

func serviceErrorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrNoFactoryScope):
		return http.StatusForbidden, CodeNoFactoryScope, "Your account is not linked to a factory"
	case errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "Not found"
	case errors.Is(err, service.ErrEmptyMessage):
		return http.StatusBadRequest, CodeInvalidRequest, "Message is required"
	case errors.Is(err, service.ErrGenerationFailed):
		return http.StatusBadGateway, CodeGenerationFailed, "The assistant could not answer right now, please try again"
	default:
		return http.StatusInternalServerError, CodeInternal, "Internal server error"
	}
}
