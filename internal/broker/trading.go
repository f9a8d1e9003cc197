package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"github.com/rickgao/tradergrail/internal/config"
)

// tradingAPI is the subset of *alpaca.Client used here.
type tradingAPI interface {
	GetAccount() (*alpaca.Account, error)
	GetPositions() ([]alpaca.Position, error)
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
	GetOrders(req alpaca.GetOrdersRequest) ([]alpaca.Order, error)
	CancelOrder(orderID string) error
	GetClock() (*alpaca.Clock, error)
}

// Account is the subset of brokerage account state shown on the dashboard.
type Account struct {
	Equity           decimal.Decimal
	Cash             decimal.Decimal
	BuyingPower      decimal.Decimal
	PortfolioValue   decimal.Decimal
	DaytradeCount    int64
	PatternDayTrader bool
}

// Position is an open position.
type Position struct {
	Symbol              string
	Qty                 decimal.Decimal
	AvgEntryPrice       decimal.Decimal
	CurrentPrice        decimal.Decimal
	MarketValue         decimal.Decimal
	UnrealizedPL        decimal.Decimal
	UnrealizedPLPercent decimal.Decimal // percent, not fraction
	Side                string          // "long" or "short"
}

// OrderRequest is a validated order ready for submission.
type OrderRequest struct {
	Symbol     string
	Qty        decimal.Decimal
	Side       string // "buy" or "sell"
	Type       string // "market" or "limit"
	LimitPrice *decimal.Decimal
}

// Order is a submitted order as reported by the brokerage.
type Order struct {
	ID             string           `json:"id"`
	Symbol         string           `json:"symbol"`
	Qty            *decimal.Decimal `json:"qty"`
	Side           string           `json:"side"`
	Type           string           `json:"type"`
	Status         string           `json:"status"`
	FilledQty      decimal.Decimal  `json:"filledQty"`
	FilledAvgPrice *decimal.Decimal `json:"filledAvgPrice"`
	LimitPrice     *decimal.Decimal `json:"limitPrice"`
	StopPrice      *decimal.Decimal `json:"stopPrice"`
	SubmittedAt    time.Time        `json:"submittedAt"`
	FilledAt       *time.Time       `json:"filledAt"`
}

// Clock is the market clock.
type Clock struct {
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}

// Trading forwards account and order operations to the Alpaca trading API.
type Trading struct {
	api    tradingAPI
	logger *slog.Logger
}

// NewTrading creates a Trading adapter from broker config.
func NewTrading(cfg config.BrokerConfig, logger *slog.Logger) *Trading {
	client := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    cfg.KeyID,
		APISecret: cfg.SecretKey,
		BaseURL:   cfg.TradingURL,
	})
	return newTrading(client, logger)
}

func newTrading(api tradingAPI, logger *slog.Logger) *Trading {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trading{api: api, logger: logger}
}

// Account returns the current account summary.
func (t *Trading) Account(ctx context.Context) (Account, error) {
	a, err := callWithContext(ctx, t.api.GetAccount)
	if err != nil {
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	return Account{
		Equity:           a.Equity,
		Cash:             a.Cash,
		BuyingPower:      a.BuyingPower,
		PortfolioValue:   a.PortfolioValue,
		DaytradeCount:    a.DaytradeCount,
		PatternDayTrader: a.PatternDayTrader,
	}, nil
}

// Positions returns all open positions.
func (t *Trading) Positions(ctx context.Context) ([]Position, error) {
	ps, err := callWithContext(ctx, t.api.GetPositions)
	if err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}

	out := make([]Position, 0, len(ps))
	for _, p := range ps {
		out = append(out, Position{
			Symbol:              p.Symbol,
			Qty:                 p.Qty,
			AvgEntryPrice:       p.AvgEntryPrice,
			CurrentPrice:        orZero(p.CurrentPrice),
			MarketValue:         orZero(p.MarketValue),
			UnrealizedPL:        orZero(p.UnrealizedPL),
			UnrealizedPLPercent: orZero(p.UnrealizedPLPC).Mul(decimal.NewFromInt(100)),
			Side:                p.Side,
		})
	}
	return out, nil
}

// PlaceOrder submits a day order.
func (t *Trading) PlaceOrder(ctx context.Context, req OrderRequest) (Order, error) {
	qty := req.Qty
	placed, err := callWithContext(ctx, func() (*alpaca.Order, error) {
		return t.api.PlaceOrder(alpaca.PlaceOrderRequest{
			Symbol:      req.Symbol,
			Qty:         &qty,
			Side:        alpaca.Side(req.Side),
			Type:        alpaca.OrderType(req.Type),
			TimeInForce: alpaca.Day,
			LimitPrice:  req.LimitPrice,
		})
	})
	if err != nil {
		return Order{}, fmt.Errorf("place order %s: %w", req.Symbol, err)
	}

	t.logger.Info("order placed",
		"order_id", placed.ID,
		"symbol", placed.Symbol,
		"side", placed.Side,
		"type", placed.Type,
		"status", placed.Status,
	)
	return toOrder(*placed), nil
}

// Orders lists orders by status ("open", "closed" or "all").
func (t *Trading) Orders(ctx context.Context, status string) ([]Order, error) {
	os, err := callWithContext(ctx, func() ([]alpaca.Order, error) {
		return t.api.GetOrders(alpaca.GetOrdersRequest{Status: status, Limit: 100})
	})
	if err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}

	out := make([]Order, 0, len(os))
	for _, o := range os {
		out = append(out, toOrder(o))
	}
	return out, nil
}

// CancelOrder cancels an open order.
func (t *Trading) CancelOrder(ctx context.Context, orderID string) error {
	_, err := callWithContext(ctx, func() (struct{}, error) {
		return struct{}{}, t.api.CancelOrder(orderID)
	})
	if err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	return nil
}

// Clock returns the market clock.
func (t *Trading) Clock(ctx context.Context) (Clock, error) {
	c, err := callWithContext(ctx, t.api.GetClock)
	if err != nil {
		return Clock{}, fmt.Errorf("get clock: %w", err)
	}
	return Clock{IsOpen: c.IsOpen, NextOpen: c.NextOpen, NextClose: c.NextClose}, nil
}

func toOrder(o alpaca.Order) Order {
	return Order{
		ID:             o.ID,
		Symbol:         o.Symbol,
		Qty:            o.Qty,
		Side:           string(o.Side),
		Type:           string(o.Type),
		Status:         o.Status,
		FilledQty:      o.FilledQty,
		FilledAvgPrice: o.FilledAvgPrice,
		LimitPrice:     o.LimitPrice,
		StopPrice:      o.StopPrice,
		SubmittedAt:    o.SubmittedAt,
		FilledAt:       o.FilledAt,
	}
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
