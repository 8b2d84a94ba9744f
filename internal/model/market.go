package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketTradingParams are the per-token parameters needed to validate and
// construct an order. Values are immutable once fetched; the resolver caches
// them for a short window since they change rarely but not never.
type MarketTradingParams struct {
	TokenID    string          `json:"token_id"`
	TickSize   decimal.Decimal `json:"tick_size"`
	NegRisk    bool            `json:"neg_risk"`
	FeeRateBps int64           `json:"fee_rate_bps"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

// FeeMultiplier returns 1 + feeRateBps/10000 for notional estimates.
func (p MarketTradingParams) FeeMultiplier() decimal.Decimal {
	if p.FeeRateBps <= 0 {
		return decimal.NewFromInt(1)
	}
	bps := decimal.NewFromInt(p.FeeRateBps).Div(decimal.NewFromInt(10000))
	return decimal.NewFromInt(1).Add(bps)
}
