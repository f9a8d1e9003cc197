package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rickgao/tradergrail/internal/trading"
)

func (s *Server) executeTrade(c *gin.Context) {
	var req trading.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	order, err := s.deps.Desk.Execute(c.Request.Context(), principal(c).ID, req)
	if err != nil {
		s.tradingError(c, err, "Failed to execute trade")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (s *Server) listOrders(c *gin.Context) {
	orders, err := s.deps.Desk.Orders(c.Request.Context(), c.Query("status"))
	if err != nil {
		s.tradingError(c, err, "Failed to fetch orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) cancelOrder(c *gin.Context) {
	if err := s.deps.Desk.Cancel(c.Request.Context(), c.Query("id")); err != nil {
		s.tradingError(c, err, "Failed to cancel order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order cancelled successfully"})
}

func (s *Server) getPortfolio(c *gin.Context) {
	p, err := s.deps.Desk.Portfolio(c.Request.Context())
	if err != nil {
		s.tradingError(c, err, "Failed to fetch portfolio")
		return
	}
	c.JSON(http.StatusOK, p)
}

// tradingError maps validation failures to 400 and everything else to 500.
func (s *Server) tradingError(c *gin.Context, err error, fallback string) {
	var invalid *trading.ValidationError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Message})
		return
	}

	s.logger.Error(fallback, "path", c.Request.URL.Path, "user_id", principal(c).ID, "error", err)
	msg := err.Error()
	if msg == "" {
		msg = fallback
	}
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": msg})
}
