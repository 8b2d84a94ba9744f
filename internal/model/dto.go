package model

import "github.com/shopspring/decimal"

// Side of an order.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Order time-in-force variants accepted by the CLOB.
const (
	OrderTypeGTC = "GTC"
	OrderTypeFOK = "FOK"
	OrderTypeGTD = "GTD"
	OrderTypeFAK = "FAK"
)

// RejectReason enumerates why the validator refused an order before any
// network call was made.
type RejectReason string

const (
	RejectInvalidPrice      RejectReason = "INVALID_PRICE"
	RejectInvalidSize       RejectReason = "INVALID_SIZE"
	RejectOrderTooLarge     RejectReason = "ORDER_TOO_LARGE"
	RejectInvalidExpiration RejectReason = "INVALID_EXPIRATION"
	RejectDailyLimit        RejectReason = "DAILY_LIMIT"
	RejectBlockedToken      RejectReason = "BLOCKED_TOKEN"
	RejectSlippage          RejectReason = "SLIPPAGE"
)

// OrderRequest is the incoming place_order body. It is validated before use
// and never mutated.
type OrderRequest struct {
	TokenID    string  `json:"token_id" binding:"required"`
	Side       string  `json:"side" binding:"required,oneof=BUY SELL"`
	Price      float64 `json:"price" binding:"required"`
	Size       float64 `json:"size" binding:"required"`
	OrderType  string  `json:"order_type,omitempty"` // GTC (default) / FOK / GTD / FAK
	Expiration int64   `json:"expiration,omitempty"` // unix seconds, required for GTD
	PostOnly   *bool   `json:"post_only,omitempty"`
}

// Notional returns price * size as an exact decimal.
func (r OrderRequest) Notional() decimal.Decimal {
	return decimal.NewFromFloat(r.Price).Mul(decimal.NewFromFloat(r.Size))
}

// OrderResult is the normalized outcome of place_order, produced exactly
// once per call. A successful result with Simulated == false can only come
// from the authenticated submission path; rejections report Simulated ==
// false in every mode since nothing was submitted.
type OrderResult struct {
	Success        bool            `json:"success"`
	Simulated      bool            `json:"simulated"`
	OrderID        string          `json:"order_id,omitempty"`
	Status         string          `json:"status,omitempty"`
	RejectReason   RejectReason    `json:"reject_reason,omitempty"`
	RejectDetail   string          `json:"reject_detail,omitempty"`
	RawNotionalUSD decimal.Decimal `json:"raw_notional_usd"`
}

// CancelResult reports the outcome of a cancel for a single order ID.
// Batch cancels return one entry per ID; partial failure is allowed.
type CancelResult struct {
	OrderID  string `json:"order_id,omitempty"`
	Canceled bool   `json:"canceled"`
	Reason   string `json:"reason,omitempty"`
}

// CancelAllResult is the kill-switch outcome. Zero open orders is success.
type CancelAllResult struct {
	Canceled    []string          `json:"canceled"`
	NotCanceled map[string]string `json:"not_canceled,omitempty"`
}

// OrderSummary is a point-in-time view of a resting order.
type OrderSummary struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Market       string `json:"market"`
	AssetID      string `json:"asset_id"`
	Side         string `json:"side"`
	Price        string `json:"price"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
	OrderType    string `json:"order_type,omitempty"`
	Expiration   string `json:"expiration,omitempty"`
	CreatedAt    int64  `json:"created_at,omitempty"`
}

// BalanceInfo is the collateral or conditional-token balance plus the
// exchange allowance for it.
type BalanceInfo struct {
	AssetType string `json:"asset_type"`
	TokenID   string `json:"token_id,omitempty"`
	Balance   string `json:"balance"`
	Allowance string `json:"allowance,omitempty"`
}

// CancelOrdersRequest is the batch-cancel body.
type CancelOrdersRequest struct {
	OrderIDs []string `json:"order_ids" binding:"required,min=1"`
}
