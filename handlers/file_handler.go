package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"floorchat-backend/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileHandler serves the original files behind knowledge documents when
// they live in local storage
type FileHandler struct {
	storage storage.Storage
	logger  *zap.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(store storage.Storage, logger *zap.Logger) *FileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileHandler{storage: store, logger: logger}
}

// GetFile handles GET /api/files/*key
func (h *FileHandler) GetFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "File key is required")
		return
	}

	reader, err := h.storage.Download(c.Request.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respondError(c, http.StatusNotFound, CodeNotFound, "File not found")
		case errors.Is(err, storage.ErrInvalidKey), errors.Is(err, storage.ErrEmptyKey):
			respondError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid file key")
		default:
			h.logger.Error("failed to download file", zap.String("key", key), zap.Error(err))
			respondError(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
		}
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, storage.ContentType(key), reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", path.Base(key)),
	})
}
