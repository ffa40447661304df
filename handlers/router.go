package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Router holds what the HTTP routes are wired to
type Router struct {
	Chat    *ChatHandler
	Files   *FileHandler // optional
	Callers CallerLookup
	Logger  *zap.Logger
}

// Engine builds the gin engine with every route registered
func (r Router) Engine() *gin.Engine {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := gin.New()
	e.Use(gin.Recovery(), requestLogger(logger))

	e.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := e.Group("/api")
	api.Use(RequireAPIKey(r.Callers, logger))
	{
		api.POST("/chat", r.Chat.Chat)
		api.GET("/conversations", r.Chat.ListConversations)
		api.GET("/conversations/:id/messages", r.Chat.ListMessages)

		if r.Files != nil {
			api.GET("/files/*key", r.Files.GetFile)
		}
	}

	return e
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("size", c.Writer.Size()))
	}
}
