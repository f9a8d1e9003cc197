// Package trading validates order requests and forwards them to the
// brokerage paper-trading account.
package trading

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/tradergrail/internal/broker"
	"github.com/rickgao/tradergrail/internal/model"
)

// StrategyManual tags orders placed by hand from the dashboard.
const StrategyManual = "manual"

// ValidationError reports a malformed request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// Broker is the brokerage account the desk trades against.
type Broker interface {
	Account(ctx context.Context) (broker.Account, error)
	Positions(ctx context.Context) ([]broker.Position, error)
	PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.Order, error)
	Orders(ctx context.Context, status string) ([]broker.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// TradeStore persists submitted orders.
type TradeStore interface {
	InsertTrade(ctx context.Context, t model.TradeRecord) error
}

// ExecuteRequest is an order as submitted by the dashboard.
type ExecuteRequest struct {
	Symbol     string           `json:"symbol"`
	Qty        *decimal.Decimal `json:"qty"`
	Side       string           `json:"side"`
	Type       string           `json:"type"`
	LimitPrice *decimal.Decimal `json:"limitPrice"`
}

// Desk executes and tracks orders.
type Desk struct {
	broker Broker
	trades TradeStore
	logger *slog.Logger
	now    func() time.Time
}

// NewDesk creates a Desk. trades may be nil to skip persistence.
func NewDesk(b Broker, trades TradeStore, logger *slog.Logger) *Desk {
	if logger == nil {
		logger = slog.Default()
	}
	return &Desk{broker: b, trades: trades, logger: logger, now: time.Now}
}

// Validate checks req and returns the brokerage order it describes.
func (req ExecuteRequest) Validate() (broker.OrderRequest, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" || req.Qty == nil || req.Side == "" || req.Type == "" {
		return broker.OrderRequest{}, invalid("Missing required fields: symbol, qty, side, type")
	}
	if !req.Qty.IsPositive() {
		return broker.OrderRequest{}, invalid("Quantity must be greater than 0")
	}
	if req.Side != "buy" && req.Side != "sell" {
		return broker.OrderRequest{}, invalid(`Side must be "buy" or "sell"`)
	}

	out := broker.OrderRequest{Symbol: symbol, Qty: *req.Qty, Side: req.Side, Type: req.Type}
	switch req.Type {
	case "market":
	case "limit":
		if req.LimitPrice == nil || !req.LimitPrice.IsPositive() {
			return broker.OrderRequest{}, invalid("Limit price is required for limit orders")
		}
		lp := *req.LimitPrice
		out.LimitPrice = &lp
	default:
		return broker.OrderRequest{}, invalid(`Order type must be "market" or "limit"`)
	}
	return out, nil
}

// Execute validates and submits an order for userID, then records it.
// A failure to record the trade is logged and does not fail the call.
func (d *Desk) Execute(ctx context.Context, userID string, req ExecuteRequest) (broker.Order, error) {
	orderReq, err := req.Validate()
	if err != nil {
		return broker.Order{}, err
	}

	order, err := d.broker.PlaceOrder(ctx, orderReq)
	if err != nil {
		return broker.Order{}, err
	}

	if d.trades != nil {
		if err := d.trades.InsertTrade(ctx, tradeRecord(userID, order, d.now())); err != nil {
			d.logger.Error("failed to store trade",
				"order_id", order.ID,
				"user_id", userID,
				"error", err,
			)
		}
	}

	return order, nil
}

func tradeRecord(userID string, o broker.Order, now time.Time) model.TradeRecord {
	var qty, price float64
	if o.Qty != nil {
		qty = o.Qty.InexactFloat64()
	}
	if o.FilledAvgPrice != nil {
		price = o.FilledAvgPrice.InexactFloat64()
	}
	meta := map[string]any{
		"order_id":   o.ID,
		"order_type": o.Type,
	}
	if o.LimitPrice != nil {
		meta["limit_price"] = o.LimitPrice.InexactFloat64()
	}
	if o.StopPrice != nil {
		meta["stop_price"] = o.StopPrice.InexactFloat64()
	}
	return model.TradeRecord{
		ID:         uuid.New(),
		UserID:     userID,
		Symbol:     o.Symbol,
		Side:       o.Side,
		Quantity:   qty,
		Price:      price,
		Status:     o.Status,
		StrategyID: StrategyManual,
		Metadata:   meta,
		CreatedAt:  now,
	}
}

// Orders lists orders by status: "open" (default), "closed" or "all".
func (d *Desk) Orders(ctx context.Context, status string) ([]broker.Order, error) {
	switch status {
	case "":
		status = "open"
	case "open", "closed", "all":
	default:
		return nil, invalid(`Status must be "open", "closed" or "all"`)
	}
	return d.broker.Orders(ctx, status)
}

// Cancel cancels an open order.
func (d *Desk) Cancel(ctx context.Context, orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return invalid("Order ID is required")
	}
	return d.broker.CancelOrder(ctx, orderID)
}

// Portfolio fetches the account and positions concurrently and summarizes them.
func (d *Desk) Portfolio(ctx context.Context) (Portfolio, error) {
	var (
		account   broker.Account
		positions []broker.Position
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		account, err = d.broker.Account(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		positions, err = d.broker.Positions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Portfolio{}, fmt.Errorf("fetch portfolio: %w", err)
	}

	return summarize(account, positions), nil
}
