package store

import (
	"context"
	"fmt"

	"github.com/rickgao/tradergrail/internal/model"
)

// InsertTrade persists a submitted order.
func (s *Store) InsertTrade(ctx context.Context, t model.TradeRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trades (id, user_id, symbol, side, quantity, price, status, strategy_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, t.UserID, t.Symbol, t.Side, t.Quantity, t.Price, t.Status, t.StrategyID, t.Metadata, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertAnalysis persists an AI market analysis.
func (s *Store) InsertAnalysis(ctx context.Context, a model.AnalysisRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_analysis (id, user_id, symbol, price_at_analysis, sentiment, confidence, summary, reasoning, sources, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, a.ID, a.UserID, a.Symbol, a.PriceAtAnalysis, a.Analysis.Sentiment, a.Analysis.Confidence, a.Analysis.Summary,
		a.Analysis.Reasoning, a.Analysis.Sources, a.Metadata, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}
