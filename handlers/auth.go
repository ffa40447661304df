package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"floorchat-backend/models"
	"floorchat-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// APIKeyHeader carries "<caller-id>.<secret>".
const APIKeyHeader = "X-API-Key"

const callerKey = "caller"

// CallerLookup loads callers by ID
type CallerLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Caller, error)
}

// RequireAPIKey identifies the caller from the API key header and stores it
// in the request context.
func RequireAPIKey(callers CallerLookup, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		id, secret, err := ParseAPIKey(c.GetHeader(APIKeyHeader))
		if err != nil {
			respondError(c, http.StatusUnauthorized, CodeUnauthorized, "A valid API key is required")
			c.Abort()
			return
		}

		caller, err := callers.GetByID(c.Request.Context(), id)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				logger.Error("failed to load caller", zap.String("caller_id", id.String()), zap.Error(err))
				respondError(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
				c.Abort()
				return
			}
			respondError(c, http.StatusUnauthorized, CodeUnauthorized, "A valid API key is required")
			c.Abort()
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(caller.APIKeyHash), []byte(secret)) != nil {
			respondError(c, http.StatusUnauthorized, CodeUnauthorized, "A valid API key is required")
			c.Abort()
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the caller set by RequireAPIKey
func CallerFrom(c *gin.Context) (*models.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil, false
	}
	caller, ok := v.(*models.Caller)
	return caller, ok
}

// ParseAPIKey splits a key into caller ID and secret
func ParseAPIKey(key string) (uuid.UUID, string, error) {
	idPart, secret, ok := strings.Cut(strings.TrimSpace(key), ".")
	if !ok || secret == "" {
		return uuid.Nil, "", errors.New("malformed API key")
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("malformed API key: %w", err)
	}
	return id, secret, nil
}

// NewAPISecret returns a random secret and its bcrypt hash
func NewAPISecret() (secret, hash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate secret: %w", err)
	}
	secret = hex.EncodeToString(buf)

	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return secret, string(h), nil
}

// FormatAPIKey joins a caller ID and secret into the header value
func FormatAPIKey(id uuid.UUID, secret string) string {
	return id.String() + "." + secret
}
