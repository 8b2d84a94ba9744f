package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/polyagent/internal/config"
	"github.com/GoPolymarket/polyagent/internal/model"
)

func testValidator() *Validator {
	v := NewValidator(&config.TradingConfig{
		MaxOrderNotionalUSD: 100,
		MinOrderSize:        5,
		BlockedTokenIDs:     []string{"blocked-token"},
	})
	v.now = func() time.Time { return time.Unix(1700000000, 0) }
	return v
}

func testParams(tick string, feeBps int64) *model.MarketTradingParams {
	return &model.MarketTradingParams{
		TokenID:    "token-1",
		TickSize:   decimal.RequireFromString(tick),
		FeeRateBps: feeBps,
		FetchedAt:  time.Now(),
	}
}

func TestValidator_AcceptsValidOrder(t *testing.T) {
	v := testValidator()
	req := &model.OrderRequest{TokenID: "token-1", Side: model.SideBuy, Price: 0.35, Size: 100, OrderType: model.OrderTypeGTC}

	assert.Nil(t, v.Precheck(req))
	assert.Nil(t, v.Validate(req, testParams("0.01", 0)))
}

func TestValidator_BlockedToken(t *testing.T) {
	v := testValidator()
	req := &model.OrderRequest{TokenID: "blocked-token", Side: model.SideBuy, Price: 0.5, Size: 10, OrderType: model.OrderTypeGTC}

	rej := v.Precheck(req)
	require.NotNil(t, rej)
	assert.Equal(t, model.RejectBlockedToken, rej.Reason)
}

func TestValidator_PriceBounds(t *testing.T) {
	v := testValidator()
	for _, price := range []float64{0, -0.1, 1, 1.5} {
		req := &model.OrderRequest{TokenID: "token-1", Side: model.SideBuy, Price: price, Size: 10, OrderType: model.OrderTypeGTC}
		rej := v.Precheck(req)
		require.NotNil(t, rej, "price %v", price)
		assert.Equal(t, model.RejectInvalidPrice, rej.Reason)
	}
}

func TestValidator_SizeChecks(t *testing.T) {
	v := testValidator()

	rej := v.Precheck(&model.OrderRequest{TokenID: "token-1", Side: model.SideBuy, Price: 0.5, Size: 0, OrderType: model.OrderTypeGTC})
	require.NotNil(t, rej)
	assert.Equal(t, model.RejectInvalidSize, rej.Reason)

	// Below the configured minimum of 5.
	rej = v.Precheck(&model.OrderRequest{TokenID: "token-1", Side: model.SideBuy, Price: 0.5, Size: 4, OrderType: model.OrderTypeGTC})
	require.NotNil(t, rej)
	assert.Equal(t, model.RejectInvalidSize, rej.Reason)
}

func TestValidator_NotionalCap(t *testing.T) {
	v := testValidator()

	// 0.35 * 1000 = 350 USD > 100 USD cap, rejected without metadata.
	rej := v.Precheck(&model.OrderRequest{TokenID: "token-1", Side: model.SideBuy, Price: 0.35, Size: 1000, OrderType: model.OrderTypeGTC})
	require.NotNil(t, rej)
	assert.Equal(t, model.RejectOrderTooLarge, rej.Reason)
}

func TestValidator_FeeAdjustedNotionalCap(t *testing.T) {
	v := testValidator()
	req := &model.OrderRequest{TokenID: "token-1", Side: model.SideBuy, Price: 0.5, Size: 199, OrderType: model.OrderTypeGTC}

	// Raw notional 99.50 passes; at 200 bps the adjusted notional is 101.49.
	assert.Nil(t, v.Precheck(req))
	rej := v.Validate(req, testParams("0.01", 200))
	require.NotNil(t, rej)
	assert.Equal(t, model.RejectOrderTooLarge, rej.Reason)

	assert.Nil(t, v.Validate(req, testParams("0.01", 0)))
}

func TestValidator_TickAlignment(t *testing.T) {
	v := testValidator()
	req := &model.OrderRequest{TokenID: "token-1", Side: model.SideBuy, Price: 0.353, Size: 10, OrderType: model.OrderTypeGTC}

	rej := v.Validate(req, testParams("0.01", 0))
	require.NotNil(t, rej)
	assert.Equal(t, model.RejectInvalidPrice, rej.Reason)

	// Fine at the finer tick.
	assert.Nil(t, v.Validate(req, testParams("0.001", 0)))
}

func TestValidator_PriceWithinTickBand(t *testing.T) {
	v := testValidator()

	// 0.99 is within [0.01, 0.99]; 0.995 would exceed 1 - tick but is also
	// misaligned, so check the boundary with the tick itself.
	ok := &model.OrderRequest{TokenID: "token-1", Side: model.SideSell, Price: 0.99, Size: 10, OrderType: model.OrderTypeGTC}
	assert.Nil(t, v.Validate(ok, testParams("0.01", 0)))

	low := &model.OrderRequest{TokenID: "token-1", Side: model.SideSell, Price: 0.005, Size: 10, OrderType: model.OrderTypeGTC}
	rej := v.Validate(low, testParams("0.01", 0))
	require.NotNil(t, rej)
	assert.Equal(t, model.RejectInvalidPrice, rej.Reason)
}

func TestValidator_GTDExpiration(t *testing.T) {
	v := testValidator()
	now := int64(1700000000)

	// Missing expiration.
	rej := v.Precheck(&model.OrderRequest{TokenID: "token-1", Side: model.SideBuy, Price: 0.5, Size: 10, OrderType: model.OrderTypeGTD})
	require.NotNil(t, rej)
	assert.Equal(t, model.RejectInvalidExpiration, rej.Reason)

	// Expiration too close.
	rej = v.Precheck(&model.OrderRequest{TokenID: "token-1", Side: model.SideBuy, Price: 0.5, Size: 10, OrderType: model.OrderTypeGTD, Expiration: now + 30})
	require.NotNil(t, rej)
	assert.Equal(t, model.RejectInvalidExpiration, rej.Reason)

	// Expiration exactly at the minimum lead.
	assert.Nil(t, v.Precheck(&model.OrderRequest{TokenID: "token-1", Side: model.SideBuy, Price: 0.5, Size: 10, OrderType: model.OrderTypeGTD, Expiration: now + 60}))
}

func TestValidator_ExpirationOnlyForGTD(t *testing.T) {
	v := testValidator()

	rej := v.Precheck(&model.OrderRequest{TokenID: "token-1", Side: model.SideBuy, Price: 0.5, Size: 10, OrderType: model.OrderTypeGTC, Expiration: 1700001000})
	require.NotNil(t, rej)
	assert.Equal(t, model.RejectInvalidExpiration, rej.Reason)
}
