package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LogLevelRequest changes the log level at runtime
type LogLevelRequest struct {
	Level string `json:"level" binding:"required"`
}

// GetLogLevel returns the current log level
func (h *Handlers) GetLogLevel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"level": h.logger.Level()})
}

// SetLogLevel changes the log level of every component logger
func (h *Handlers) SetLogLevel(c *gin.Context) {
	var req LogLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	previous := h.logger.Level()
	if err := h.logger.SetLevel(req.Level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Info("Log level changed",
		zap.String("from", previous),
		zap.String("to", h.logger.Level()))

	c.JSON(http.StatusOK, gin.H{"success": true, "level": h.logger.Level()})
}
