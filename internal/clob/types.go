package clob

import (
	"encoding/json"
	"math/big"
)

// Credentials is the L2 API key triplet returned by /auth/derive-api-key,
// used for HMAC-signed requests.
type Credentials struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// Complete reports whether all three parts of the triplet are present.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.Secret != "" && c.Passphrase != ""
}

type tickSizeResponse struct {
	MinimumTickSize json.Number `json:"minimum_tick_size"`
}

type negRiskResponse struct {
	NegRisk bool `json:"neg_risk"`
}

type feeRateResponse struct {
	FeeRateBps json.Number `json:"fee_rate_bps"`
}

// OpenOrder is a live resting order as reported by GET /data/orders.
type OpenOrder struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Market       string `json:"market"`   // condition ID
	AssetID      string `json:"asset_id"` // token ID
	Side         string `json:"side"`
	Price        string `json:"price"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
	OrderType    string `json:"order_type"`
	Expiration   string `json:"expiration"`
	CreatedAt    int64  `json:"created_at"`
}

// SignedOrder is the flat wire representation of a signed exchange order.
// Amounts are scaled to 1e6; numeric fields ride as strings except the
// amounts, which the exchange accepts as integers.
type SignedOrder struct {
	Salt          string   `json:"salt"`
	Maker         string   `json:"maker"`  // funder or proxy wallet
	Signer        string   `json:"signer"` // EOA that signed
	Taker         string   `json:"taker"`  // zero address = open order
	TokenID       string   `json:"tokenId"`
	MakerAmount   *big.Int `json:"makerAmount"`
	TakerAmount   *big.Int `json:"takerAmount"`
	Side          string   `json:"side"`
	Expiration    string   `json:"expiration"`
	Nonce         string   `json:"nonce"`
	FeeRateBps    string   `json:"feeRateBps"`
	SignatureType int      `json:"signatureType"` // 0 = EOA
	Signature     string   `json:"signature"`
}

// OrderPayload is the POST /order body.
type OrderPayload struct {
	Order     SignedOrder `json:"order"`
	Owner     string      `json:"owner"` // L2 API key of the order owner
	OrderType string      `json:"orderType"`
	PostOnly  *bool       `json:"postOnly,omitempty"`
}

// OrderResponse is the exchange's answer to POST /order.
type OrderResponse struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg"`
	OrderID  string `json:"orderID"`
	Status   string `json:"status"` // e.g. "live", "matched"
}

// CancelResponse is returned by DELETE /orders. Partial failure is normal:
// IDs land either in Canceled or in NotCanceled with a reason.
type CancelResponse struct {
	Canceled    []string          `json:"canceled"`
	NotCanceled map[string]string `json:"not_canceled"`
}

// BalanceAllowance is the USDC or conditional-token balance plus exchange
// allowance, as strings scaled to token decimals.
type BalanceAllowance struct {
	Balance   string `json:"balance"`
	Allowance string `json:"allowance"`
}

// Asset types accepted by /balance-allowance.
const (
	AssetCollateral  = "COLLATERAL"
	AssetConditional = "CONDITIONAL"
)
