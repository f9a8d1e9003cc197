package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rickgao/tradergrail/internal/auth"
	"github.com/rickgao/tradergrail/internal/broker"
	"github.com/rickgao/tradergrail/internal/version"
)

// Pinger checks a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MarketClock reports whether the market is open.
type MarketClock interface {
	Clock(ctx context.Context) (broker.Clock, error)
}

// Health holds what the health endpoint inspects. Nil fields are reported
// as not configured.
type Health struct {
	Database    Pinger
	Cache       Pinger
	Clock       MarketClock
	BrokerKeyID string
	AIKey       string
	AuthURL     string
	Timeout     time.Duration
}

type componentStatus struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

func (s *Server) health(c *gin.Context) {
	h := s.deps.Health
	if h == nil {
		h = &Health{}
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	status := "healthy"
	components := make(map[string]any)

	switch {
	case h.Database == nil:
		status = "unhealthy"
		components["database"] = componentStatus{Message: "not configured"}
	default:
		if err := h.Database.Ping(ctx); err != nil {
			status = "unhealthy"
			components["database"] = componentStatus{Message: err.Error()}
		} else {
			components["database"] = componentStatus{Connected: true, Message: "connected"}
		}
	}

	if h.Cache != nil {
		if err := h.Cache.Ping(ctx); err != nil {
			status = degrade(status)
			components["cache"] = componentStatus{Message: err.Error()}
		} else {
			components["cache"] = componentStatus{Connected: true, Message: "connected"}
		}
	}

	alpaca := map[string]any{"connected": false}
	if !auth.Configured(h.BrokerKeyID) {
		status = degrade(status)
		alpaca["message"] = "API keys not configured"
	} else {
		alpaca["message"] = "Key: " + auth.MaskKey(h.BrokerKeyID, 6)
		if h.Clock != nil {
			clock, err := h.Clock.Clock(ctx)
			if err != nil {
				status = degrade(status)
				alpaca["error"] = err.Error()
			} else {
				alpaca["connected"] = true
				alpaca["market_open"] = clock.IsOpen
			}
		}
	}
	components["alpaca"] = alpaca

	if auth.Configured(h.AIKey) {
		components["gemini"] = componentStatus{Connected: true, Message: "Key: " + auth.MaskKey(h.AIKey, 10)}
	} else {
		components["gemini"] = componentStatus{Message: "API key not configured"}
	}

	if h.AuthURL != "" {
		components["auth_provider"] = componentStatus{Connected: true, Message: h.AuthURL}
	} else {
		components["auth_provider"] = componentStatus{Message: "scheduler token only"}
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"timestamp":  s.now().UTC(),
		"version":    version.Info(),
		"components": components,
	})
}

func degrade(status string) string {
	if status == "healthy" {
		return "degraded"
	}
	return status
}
