package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rickgao/tradergrail/internal/marketview"
)

// updateMarket runs a sync pass. The run is detached from the request so a
// client disconnect does not cut it short.
func (s *Server) updateMarket(c *gin.Context) {
	p := principal(c)
	ctx := context.WithoutCancel(c.Request.Context())

	report, err := s.deps.Sync.Run(ctx)
	if err != nil {
		s.logger.Error("sync run failed", "caller", p.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	s.logger.Info("sync run triggered",
		"caller", p.ID,
		"run_id", report.RunID,
		"updated", report.UpdatedCount,
		"failed", report.FailedCount,
	)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"runId":        report.RunID,
		"timestamp":    report.FinishedAt,
		"updatedCount": report.UpdatedCount,
		"failedCount":  report.FailedCount,
		"skippedCount": report.SkippedCount,
		"results":      report.Results,
	})
}

func (s *Server) getMarket(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Symbol parameter is required"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Limit must be an integer"})
			return
		}
		limit = n
	}

	view, err := s.deps.View.LatestView(c.Request.Context(), symbol, c.Query("timeframe"), limit)
	if err != nil {
		var invalid *marketview.InvalidRequestError
		switch {
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Message})
		case errors.Is(err, marketview.ErrNotAvailable):
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "No market data found",
				"message":   fmt.Sprintf("No cached data for %s. Click \"Update Market Data\" in Settings first.", symbol),
				"available": false,
				"symbol":    symbol,
			})
		default:
			s.logger.Error("market view failed", "symbol", symbol, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Failed to fetch market data",
				"available": false,
			})
		}
		return
	}

	c.JSON(http.StatusOK, view)
}
