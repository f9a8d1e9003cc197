// Package server exposes the dashboard backend over HTTP.
//
// Routes:
//
//	POST   /api/market/update      run a sync pass (user or scheduler token)
//	GET    /api/market             cached quote and bars for one symbol
//	POST   /api/trading/execute    place a paper order
//	GET    /api/trading/orders     list orders (?status=open|closed|all)
//	DELETE /api/trading/orders     cancel an order (?id=)
//	GET    /api/trading/portfolio  account, positions and totals
//	POST   /api/ai/analyze         market analysis for a symbol
//	POST   /api/ai/chat            free-form analyst chat
//	GET    /api/system/health      component status, no auth
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rickgao/tradergrail/internal/analyst"
	"github.com/rickgao/tradergrail/internal/auth"
	"github.com/rickgao/tradergrail/internal/broker"
	"github.com/rickgao/tradergrail/internal/config"
	"github.com/rickgao/tradergrail/internal/marketview"
	"github.com/rickgao/tradergrail/internal/model"
	"github.com/rickgao/tradergrail/internal/trading"
)

// SyncRunner runs one sync pass.
type SyncRunner interface {
	Run(ctx context.Context) (model.SyncReport, error)
}

// MarketViewer serves the cached market view.
type MarketViewer interface {
	LatestView(ctx context.Context, symbol, timeframe string, limit int) (marketview.View, error)
}

// TradingDesk places and tracks paper orders.
type TradingDesk interface {
	Execute(ctx context.Context, userID string, req trading.ExecuteRequest) (broker.Order, error)
	Orders(ctx context.Context, status string) ([]broker.Order, error)
	Cancel(ctx context.Context, orderID string) error
	Portfolio(ctx context.Context) (trading.Portfolio, error)
}

// MarketAnalyst produces AI commentary.
type MarketAnalyst interface {
	Analyze(ctx context.Context, userID string, req analyst.Request) (model.Analysis, error)
	Chat(ctx context.Context, message string, history []analyst.Message) (string, error)
}

// Authenticator resolves the Authorization header into a caller.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (auth.Principal, error)
}

// Deps are the services behind the routes. Analyst may be nil when no AI
// key is configured.
type Deps struct {
	Auth    Authenticator
	Sync    SyncRunner
	View    MarketViewer
	Desk    TradingDesk
	Analyst MarketAnalyst
	Health  *Health
}

// Server is the HTTP API.
type Server struct {
	cfg    config.ServerConfig
	deps   Deps
	engine *gin.Engine
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Server and registers all routes.
func New(cfg config.ServerConfig, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		engine: gin.New(),
		logger: logger,
		now:    time.Now,
	}

	s.engine.Use(gin.CustomRecovery(s.recoverPanic), s.logRequests())
	if len(cfg.CORSOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")

	market := api.Group("/market")
	{
		market.GET("", s.getMarket)
		market.POST("/update", s.requireAuth(true), s.updateMarket)
	}

	tradingGroup := api.Group("/trading", s.requireAuth(false))
	{
		tradingGroup.POST("/execute", s.executeTrade)
		tradingGroup.GET("/orders", s.listOrders)
		tradingGroup.DELETE("/orders", s.cancelOrder)
		tradingGroup.GET("/portfolio", s.getPortfolio)
	}

	ai := api.Group("/ai", s.requireAuth(false))
	{
		ai.POST("/analyze", s.analyze)
		ai.POST("/chat", s.chat)
	}

	api.GET("/system/health", s.health)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// HTTPServer returns an *http.Server for addr using the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.logger.Error("panic in handler",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"panic", recovered,
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
