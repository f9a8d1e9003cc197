package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rickgao/tradergrail/internal/analyst"
)

type chatRequest struct {
	Message string            `json:"message"`
	History []analyst.Message `json:"history"`
}

func (s *Server) analyze(c *gin.Context) {
	if s.deps.Analyst == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI analyst is not configured"})
		return
	}

	var req analyst.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	analysis, err := s.deps.Analyst.Analyze(c.Request.Context(), principal(c).ID, req)
	if err != nil {
		s.aiError(c, err, "Failed to analyze market")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": analysis})
}

func (s *Server) chat(c *gin.Context) {
	if s.deps.Analyst == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI analyst is not configured"})
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reply, err := s.deps.Analyst.Chat(c.Request.Context(), req.Message, req.History)
	if err != nil {
		s.aiError(c, err, "Failed to chat with analyst")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "reply": reply})
}

func (s *Server) aiError(c *gin.Context, err error, fallback string) {
	var invalid *analyst.InvalidRequestError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Message})
	case errors.Is(err, analyst.ErrMalformedResponse):
		s.logger.Warn(fallback, "user_id", principal(c).ID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": fallback})
	default:
		s.logger.Error(fallback, "user_id", principal(c).ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
