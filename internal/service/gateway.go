package service

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/GoPolymarket/polyagent/internal/model"
	"github.com/GoPolymarket/polyagent/internal/pkg/apperrors"
	"github.com/GoPolymarket/polyagent/internal/pkg/logger"
	"github.com/GoPolymarket/polyagent/internal/pkg/metrics"
)

// GatewayService orchestrates every trading operation: validation first,
// then metadata, then the daily risk caps, and only then the submitter. Dry
// run covers placements only, which route to the simulator without touching
// the credential session; cancels and account reads always go through the
// live session.
type GatewayService struct {
	validator *Validator
	metadata  *MetadataResolver
	risk      *RiskEngine
	session   *Session
	simulator *Simulator
	dryRun    bool
	panicMode atomic.Bool
}

func NewGatewayService(validator *Validator, metadata *MetadataResolver, risk *RiskEngine, session *Session, dryRun bool) *GatewayService {
	return &GatewayService{
		validator: validator,
		metadata:  metadata,
		risk:      risk,
		session:   session,
		simulator: NewSimulator(),
		dryRun:    dryRun,
	}
}

// DryRun reports whether placements are simulated instead of submitted.
func (s *GatewayService) DryRun() bool {
	return s.dryRun
}

// PanicActive reports whether trading is suspended.
func (s *GatewayService) PanicActive() bool {
	return s.panicMode.Load()
}

// SessionState exposes the auth session state for health reporting.
func (s *GatewayService) SessionState() string {
	return s.session.State().String()
}

// PlaceOrder validates, risk-checks, and submits one order. Validation
// rejections come back as a failed OrderResult with a reason, not an error;
// errors are reserved for configuration and backend failures.
func (s *GatewayService) PlaceOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResult, error) {
	if s.panicMode.Load() {
		return nil, apperrors.New(apperrors.ErrTradingHalted, "panic mode active, all placements suspended", nil)
	}

	// Metadata-free checks run first: an order that cannot pass them
	// performs no network activity at all.
	if rej := s.validator.Precheck(req); rej != nil {
		return s.reject(req, rej), nil
	}

	params, err := s.metadata.Resolve(ctx, req.TokenID)
	if err != nil {
		return nil, err
	}

	if rej := s.validator.Validate(req, params); rej != nil {
		return s.reject(req, rej), nil
	}

	notional := req.Notional().Mul(params.FeeMultiplier())
	if rej := s.risk.Allow(ctx, notional); rej != nil {
		return s.reject(req, rej), nil
	}

	submit := s.simulator.PlaceOrder
	if !s.dryRun {
		submitter, err := s.submitter(ctx)
		if err != nil {
			return nil, err
		}
		submit = submitter.PlaceOrder
	}

	result, err := submit(ctx, req, params)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("error", req.Side, strconv.FormatBool(s.dryRun)).Inc()
		return nil, err
	}
	if !result.Success {
		metrics.OrdersTotal.WithLabelValues("rejected", req.Side, strconv.FormatBool(s.dryRun)).Inc()
		return result, nil
	}

	s.risk.Record(ctx, notional)
	metrics.OrdersTotal.WithLabelValues("accepted", req.Side, strconv.FormatBool(s.dryRun)).Inc()
	return result, nil
}

func (s *GatewayService) reject(req *model.OrderRequest, rej *Rejection) *model.OrderResult {
	metrics.OrdersTotal.WithLabelValues("rejected", req.Side, strconv.FormatBool(s.dryRun)).Inc()
	logger.Info("order rejected",
		"token_id", req.TokenID,
		"side", req.Side,
		"reason", string(rej.Reason),
		"detail", rej.Detail)
	// Rejections carry the same shape in both modes: nothing was ever
	// submitted, so nothing was simulated either.
	return &model.OrderResult{
		Success:        false,
		Simulated:      false,
		RejectReason:   rej.Reason,
		RejectDetail:   rej.Detail,
		RawNotionalUSD: req.Notional(),
	}
}

func (s *GatewayService) CancelOrder(ctx context.Context, orderID string) (*model.CancelResult, error) {
	submitter, err := s.submitter(ctx)
	if err != nil {
		return nil, err
	}
	metrics.CancelsTotal.WithLabelValues("single").Inc()
	return submitter.CancelOrder(ctx, orderID)
}

func (s *GatewayService) CancelOrders(ctx context.Context, orderIDs []string) (*model.CancelAllResult, error) {
	submitter, err := s.submitter(ctx)
	if err != nil {
		return nil, err
	}
	metrics.CancelsTotal.WithLabelValues("batch").Inc()
	return submitter.CancelOrders(ctx, orderIDs)
}

// CancelAllOrders is the kill switch. It stays available in panic mode.
func (s *GatewayService) CancelAllOrders(ctx context.Context) (*model.CancelAllResult, error) {
	submitter, err := s.submitter(ctx)
	if err != nil {
		return nil, err
	}
	metrics.CancelsTotal.WithLabelValues("all").Inc()
	return submitter.CancelAll(ctx)
}

// ActivatePanicMode suspends all placements and cancels every resting
// order. Cancellation failure leaves panic mode active.
func (s *GatewayService) ActivatePanicMode(ctx context.Context) (*model.CancelAllResult, error) {
	s.panicMode.Store(true)
	logger.Warn("panic mode activated, trading suspended")
	return s.CancelAllOrders(ctx)
}

func (s *GatewayService) OpenOrders(ctx context.Context, market, assetID string) ([]model.OrderSummary, error) {
	reader, err := s.reader(ctx)
	if err != nil {
		return nil, err
	}
	return reader.OpenOrders(ctx, market, assetID)
}

func (s *GatewayService) GetOrder(ctx context.Context, orderID string) (*model.OrderSummary, error) {
	if orderID == "" {
		return nil, apperrors.NewInvalidRequest("order id is required")
	}
	reader, err := s.reader(ctx)
	if err != nil {
		return nil, err
	}
	return reader.Order(ctx, orderID)
}

func (s *GatewayService) BalanceAllowance(ctx context.Context, assetType, tokenID string) (*model.BalanceInfo, error) {
	reader, err := s.reader(ctx)
	if err != nil {
		return nil, err
	}
	return reader.BalanceAllowance(ctx, assetType, tokenID)
}

// MarketParams resolves trading parameters for a token without touching the
// auth session. force bypasses the cache.
func (s *GatewayService) MarketParams(ctx context.Context, tokenID string, force bool) (*model.MarketTradingParams, error) {
	if force {
		return s.metadata.Refresh(ctx, tokenID)
	}
	return s.metadata.Resolve(ctx, tokenID)
}

// ResetAuth clears a failed credential session so the next authenticated
// call retries the handshake.
func (s *GatewayService) ResetAuth() bool {
	return s.session.Reset()
}

func (s *GatewayService) submitter(ctx context.Context) (Submitter, error) {
	capability, err := s.session.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return capability.Submitter, nil
}

func (s *GatewayService) reader(ctx context.Context) (Reader, error) {
	capability, err := s.session.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return capability.Reader, nil
}
