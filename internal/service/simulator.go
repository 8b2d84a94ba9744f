package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/GoPolymarket/polyagent/internal/model"
	"github.com/GoPolymarket/polyagent/internal/pkg/logger"
)

// StatusWouldExecute marks a dry-run order that passed every safety check
// and would have been submitted in live mode.
const StatusWouldExecute = "would_execute"

// simOrderPrefix distinguishes synthetic identifiers from real exchange IDs.
const simOrderPrefix = "sim-"

// Simulator is the dry-run placement path. It performs no signing and no
// network activity; orders that clear validation get a synthetic identifier.
// Everything else the gateway does, cancels included, still runs against the
// live session.
type Simulator struct{}

func NewSimulator() *Simulator {
	return &Simulator{}
}

func (s *Simulator) PlaceOrder(_ context.Context, req *model.OrderRequest, params *model.MarketTradingParams) (*model.OrderResult, error) {
	notional := req.Notional().Mul(params.FeeMultiplier())
	logger.Info("dry-run order accepted",
		"token_id", req.TokenID,
		"side", req.Side,
		"price", req.Price,
		"size", req.Size,
		"notional_usd", notional.Round(6).String())

	return &model.OrderResult{
		Success:        true,
		Simulated:      true,
		OrderID:        simOrderPrefix + uuid.NewString(),
		Status:         StatusWouldExecute,
		RawNotionalUSD: notional.Round(6),
	}, nil
}
