package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GoPolymarket/polyagent/internal/config"
	"github.com/GoPolymarket/polyagent/internal/model"
)

// minExpirationLead is the minimum distance a GTD expiration must sit in the
// future so the order does not expire in transit.
const minExpirationLead = 60 * time.Second

// Rejection describes why an order failed validation. Rejections are
// deterministic outcomes, not errors: the same request yields the same
// rejection in dry-run and live mode.
type Rejection struct {
	Reason model.RejectReason
	Detail string
}

// Validator applies the safety checks every order must pass before any
// signing or network activity. Limits are fixed at construction.
type Validator struct {
	maxNotional decimal.Decimal
	minSize     decimal.Decimal
	blocked     map[string]struct{}
	now         func() time.Time
}

func NewValidator(cfg *config.TradingConfig) *Validator {
	blocked := make(map[string]struct{}, len(cfg.BlockedTokenIDs))
	for _, id := range cfg.BlockedTokenIDs {
		blocked[id] = struct{}{}
	}
	return &Validator{
		maxNotional: decimal.NewFromFloat(cfg.MaxOrderNotionalUSD),
		minSize:     decimal.NewFromFloat(cfg.MinOrderSize),
		blocked:     blocked,
		now:         time.Now,
	}
}

// MaxNotional returns the configured per-order notional cap in USD.
func (v *Validator) MaxNotional() decimal.Decimal {
	return v.maxNotional
}

// Precheck runs every check that needs no market metadata. Orders rejected
// here incur zero network activity.
func (v *Validator) Precheck(req *model.OrderRequest) *Rejection {
	if _, ok := v.blocked[req.TokenID]; ok {
		return &Rejection{
			Reason: model.RejectBlockedToken,
			Detail: "token is on the blocked list",
		}
	}

	price := decimal.NewFromFloat(req.Price)
	if price.LessThanOrEqual(decimal.Zero) || price.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return &Rejection{
			Reason: model.RejectInvalidPrice,
			Detail: fmt.Sprintf("price %s must be strictly between 0 and 1", price),
		}
	}

	size := decimal.NewFromFloat(req.Size)
	if size.LessThanOrEqual(decimal.Zero) {
		return &Rejection{
			Reason: model.RejectInvalidSize,
			Detail: fmt.Sprintf("size %s must be positive", size),
		}
	}
	if size.LessThan(v.minSize) {
		return &Rejection{
			Reason: model.RejectInvalidSize,
			Detail: fmt.Sprintf("size %s is below the minimum of %s", size, v.minSize),
		}
	}

	// Raw notional exceeding the cap fails before metadata resolution; the
	// fee-adjusted check in Validate can only make the notional larger.
	notional := price.Mul(size)
	if notional.GreaterThan(v.maxNotional) {
		return &Rejection{
			Reason: model.RejectOrderTooLarge,
			Detail: fmt.Sprintf("order notional %s USD exceeds the cap of %s USD", notional, v.maxNotional),
		}
	}

	if req.OrderType == model.OrderTypeGTD {
		if req.Expiration == 0 {
			return &Rejection{
				Reason: model.RejectInvalidExpiration,
				Detail: "GTD orders require an expiration timestamp",
			}
		}
		deadline := time.Unix(req.Expiration, 0)
		if deadline.Before(v.now().Add(minExpirationLead)) {
			return &Rejection{
				Reason: model.RejectInvalidExpiration,
				Detail: fmt.Sprintf("expiration %d must be at least %s in the future", req.Expiration, minExpirationLead),
			}
		}
	} else if req.Expiration != 0 {
		return &Rejection{
			Reason: model.RejectInvalidExpiration,
			Detail: fmt.Sprintf("expiration is only valid for %s orders", model.OrderTypeGTD),
		}
	}

	return nil
}

// Validate runs the metadata-dependent checks: tick alignment, price bounds
// within the book, and the fee-adjusted notional cap.
func (v *Validator) Validate(req *model.OrderRequest, params *model.MarketTradingParams) *Rejection {
	if rej := v.Precheck(req); rej != nil {
		return rej
	}

	price := decimal.NewFromFloat(req.Price)
	tick := params.TickSize

	if !price.Mod(tick).IsZero() {
		return &Rejection{
			Reason: model.RejectInvalidPrice,
			Detail: fmt.Sprintf("price %s is not a multiple of the tick size %s", price, tick),
		}
	}
	if price.LessThan(tick) || price.GreaterThan(decimal.NewFromInt(1).Sub(tick)) {
		return &Rejection{
			Reason: model.RejectInvalidPrice,
			Detail: fmt.Sprintf("price %s must lie within [%s, %s]", price, tick, decimal.NewFromInt(1).Sub(tick)),
		}
	}

	size := decimal.NewFromFloat(req.Size)
	adjusted := price.Mul(size).Mul(params.FeeMultiplier())
	if adjusted.GreaterThan(v.maxNotional) {
		return &Rejection{
			Reason: model.RejectOrderTooLarge,
			Detail: fmt.Sprintf("fee-adjusted notional %s USD exceeds the cap of %s USD", adjusted.Round(6), v.maxNotional),
		}
	}

	return nil
}
