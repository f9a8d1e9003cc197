package trading

import (
	"github.com/shopspring/decimal"

	"github.com/rickgao/tradergrail/internal/broker"
)

// Portfolio is the account, its open positions and derived totals.
type Portfolio struct {
	Account   AccountView    `json:"account"`
	Positions []PositionView `json:"positions"`
	Summary   Summary        `json:"summary"`
}

// AccountView is the account section of a Portfolio.
type AccountView struct {
	Equity           float64 `json:"equity"`
	Cash             float64 `json:"cash"`
	BuyingPower      float64 `json:"buyingPower"`
	PortfolioValue   float64 `json:"portfolioValue"`
	DaytradeCount    int64   `json:"daytradeCount"`
	PatternDayTrader bool    `json:"patternDayTrader"`
}

// PositionView is one open position.
type PositionView struct {
	Symbol              string  `json:"symbol"`
	Qty                 float64 `json:"qty"`
	AvgEntryPrice       float64 `json:"avgEntryPrice"`
	CurrentPrice        float64 `json:"currentPrice"`
	MarketValue         float64 `json:"marketValue"`
	UnrealizedPL        float64 `json:"unrealizedPL"`
	UnrealizedPLPercent float64 `json:"unrealizedPLPercent"`
	Side                string  `json:"side"`
}

// Summary holds portfolio totals.
type Summary struct {
	TotalPositions           int     `json:"totalPositions"`
	TotalUnrealizedPL        float64 `json:"totalUnrealizedPL"`
	TotalUnrealizedPLPercent float64 `json:"totalUnrealizedPLPercent"` // of portfolio value
	LongPositions            int     `json:"longPositions"`
	ShortPositions           int     `json:"shortPositions"`
}

var hundred = decimal.NewFromInt(100)

func summarize(a broker.Account, ps []broker.Position) Portfolio {
	out := Portfolio{
		Account: AccountView{
			Equity:           a.Equity.InexactFloat64(),
			Cash:             a.Cash.InexactFloat64(),
			BuyingPower:      a.BuyingPower.InexactFloat64(),
			PortfolioValue:   a.PortfolioValue.InexactFloat64(),
			DaytradeCount:    a.DaytradeCount,
			PatternDayTrader: a.PatternDayTrader,
		},
		Positions: make([]PositionView, 0, len(ps)),
	}

	total := decimal.Zero
	for _, p := range ps {
		total = total.Add(p.UnrealizedPL)
		switch p.Side {
		case "long":
			out.Summary.LongPositions++
		case "short":
			out.Summary.ShortPositions++
		}
		out.Positions = append(out.Positions, PositionView{
			Symbol:              p.Symbol,
			Qty:                 p.Qty.InexactFloat64(),
			AvgEntryPrice:       p.AvgEntryPrice.InexactFloat64(),
			CurrentPrice:        p.CurrentPrice.InexactFloat64(),
			MarketValue:         p.MarketValue.InexactFloat64(),
			UnrealizedPL:        p.UnrealizedPL.InexactFloat64(),
			UnrealizedPLPercent: p.UnrealizedPLPercent.InexactFloat64(),
			Side:                p.Side,
		})
	}

	out.Summary.TotalPositions = len(ps)
	out.Summary.TotalUnrealizedPL = total.InexactFloat64()
	if a.PortfolioValue.IsPositive() {
		out.Summary.TotalUnrealizedPLPercent = total.Div(a.PortfolioValue).Mul(hundred).Round(4).InexactFloat64()
	}
	return out
}
