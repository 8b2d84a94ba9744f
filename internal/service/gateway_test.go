package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/polyagent/internal/config"
	"github.com/GoPolymarket/polyagent/internal/model"
	"github.com/GoPolymarket/polyagent/internal/pkg/apperrors"
)

// fakeSubmitter records calls and answers with canned results.
type fakeSubmitter struct {
	placed    int32
	cancelAll int32
}

func (f *fakeSubmitter) PlaceOrder(ctx context.Context, req *model.OrderRequest, params *model.MarketTradingParams) (*model.OrderResult, error) {
	atomic.AddInt32(&f.placed, 1)
	return &model.OrderResult{Success: true, OrderID: "live-1", Status: "LIVE"}, nil
}

func (f *fakeSubmitter) CancelOrder(ctx context.Context, orderID string) (*model.CancelResult, error) {
	return &model.CancelResult{OrderID: orderID, Canceled: true}, nil
}

func (f *fakeSubmitter) CancelOrders(ctx context.Context, orderIDs []string) (*model.CancelAllResult, error) {
	return &model.CancelAllResult{Canceled: orderIDs}, nil
}

func (f *fakeSubmitter) CancelAll(ctx context.Context) (*model.CancelAllResult, error) {
	atomic.AddInt32(&f.cancelAll, 1)
	return &model.CancelAllResult{Canceled: []string{"live-1"}}, nil
}

// fakeReader answers account queries with canned values.
type fakeReader struct {
	reads int32
}

func (f *fakeReader) OpenOrders(ctx context.Context, market, assetID string) ([]model.OrderSummary, error) {
	atomic.AddInt32(&f.reads, 1)
	return []model.OrderSummary{}, nil
}

func (f *fakeReader) Order(ctx context.Context, orderID string) (*model.OrderSummary, error) {
	atomic.AddInt32(&f.reads, 1)
	return &model.OrderSummary{ID: orderID, Status: "LIVE"}, nil
}

func (f *fakeReader) BalanceAllowance(ctx context.Context, assetType, tokenID string) (*model.BalanceInfo, error) {
	atomic.AddInt32(&f.reads, 1)
	return &model.BalanceInfo{AssetType: assetType, TokenID: tokenID, Balance: "0", Allowance: "0"}, nil
}

func newTestGateway(t *testing.T, dryRun bool, submitter Submitter) (*GatewayService, *fakeMetadataSource) {
	t.Helper()
	src := &fakeMetadataSource{tick: "0.01"}
	validator := NewValidator(&config.TradingConfig{MaxOrderNotionalUSD: 100})
	resolver := NewMetadataResolver(src, 5*time.Minute)
	risk := NewRiskEngine(NewMemoryUsageStore(), &config.TradingConfig{})
	session := NewSession(true, func(ctx context.Context) (*Capability, error) {
		if submitter == nil {
			t.Fatal("handshake ran without a live submitter")
		}
		return &Capability{Submitter: submitter, Reader: &fakeReader{}}, nil
	})
	return NewGatewayService(validator, resolver, risk, session, dryRun), src
}

func validOrder() *model.OrderRequest {
	return &model.OrderRequest{TokenID: "token-1", Side: model.SideBuy, Price: 0.5, Size: 100, OrderType: model.OrderTypeGTC}
}

func TestGateway_DryRunPlacementNeverTouchesSession(t *testing.T) {
	svc, _ := newTestGateway(t, true, nil)

	res, err := svc.PlaceOrder(context.Background(), validOrder())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Simulated)
	assert.Equal(t, StatusWouldExecute, res.Status)
	assert.Equal(t, "unauthenticated", svc.SessionState())
}

// Dry run only replaces placements. Cancels and account reads still need
// the live session, so without a wallet key they fail the same way live
// mode does instead of reporting a synthetic success.
func TestGateway_DryRunCancelsRequireCredentials(t *testing.T) {
	src := &fakeMetadataSource{tick: "0.01"}
	validator := NewValidator(&config.TradingConfig{MaxOrderNotionalUSD: 100})
	resolver := NewMetadataResolver(src, 5*time.Minute)
	risk := NewRiskEngine(NewMemoryUsageStore(), &config.TradingConfig{})
	svc := NewGatewayService(validator, resolver, risk, NewSession(false, nil), true)

	// Placements still simulate without credentials.
	res, err := svc.PlaceOrder(context.Background(), validOrder())
	require.NoError(t, err)
	assert.True(t, res.Simulated)

	var appErr *apperrors.AppError

	_, err = svc.CancelOrder(context.Background(), "0xabc")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCredentialsMissing, appErr.Type)

	_, err = svc.CancelAllOrders(context.Background())
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCredentialsMissing, appErr.Type)

	_, err = svc.OpenOrders(context.Background(), "", "")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCredentialsMissing, appErr.Type)

	_, err = svc.BalanceAllowance(context.Background(), "COLLATERAL", "")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCredentialsMissing, appErr.Type)
}

func TestGateway_DryRunCancelUsesSession(t *testing.T) {
	sub := &fakeSubmitter{}
	svc, _ := newTestGateway(t, true, sub)

	res, err := svc.CancelOrder(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.True(t, res.Canceled)
	assert.Equal(t, "authenticated", svc.SessionState())
}

func TestGateway_LiveOrderUsesSubmitter(t *testing.T) {
	sub := &fakeSubmitter{}
	svc, _ := newTestGateway(t, false, sub)

	res, err := svc.PlaceOrder(context.Background(), validOrder())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "live-1", res.OrderID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&sub.placed))
}

func TestGateway_PrecheckRejectionSkipsMetadata(t *testing.T) {
	svc, src := newTestGateway(t, true, nil)

	req := validOrder()
	req.Price = 1.5
	res, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, model.RejectInvalidPrice, res.RejectReason)
	assert.Equal(t, int32(0), atomic.LoadInt32(&src.calls))
}

func TestGateway_ValidationRejectionIsNotAnError(t *testing.T) {
	svc, _ := newTestGateway(t, true, nil)

	req := validOrder()
	req.Price = 0.505 // misaligned at tick 0.01
	res, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, model.RejectInvalidPrice, res.RejectReason)
	assert.NotEmpty(t, res.RejectDetail)
}

func TestGateway_PanicBlocksPlacement(t *testing.T) {
	sub := &fakeSubmitter{}
	svc, _ := newTestGateway(t, false, sub)

	result, err := svc.ActivatePanicMode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"live-1"}, result.Canceled)
	assert.True(t, svc.PanicActive())
	assert.Equal(t, int32(1), atomic.LoadInt32(&sub.cancelAll))

	_, err = svc.PlaceOrder(context.Background(), validOrder())
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTradingHalted, appErr.Type)

	// The kill switch stays available in panic mode.
	_, err = svc.CancelAllOrders(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&sub.cancelAll))
}

func TestGateway_DailyLimitRejection(t *testing.T) {
	src := &fakeMetadataSource{tick: "0.01"}
	validator := NewValidator(&config.TradingConfig{MaxOrderNotionalUSD: 100})
	resolver := NewMetadataResolver(src, 5*time.Minute)
	risk := NewRiskEngine(NewMemoryUsageStore(), &config.TradingConfig{MaxDailyOrders: 1})
	svc := NewGatewayService(validator, resolver, risk, NewSession(true, nil), true)

	res, err := svc.PlaceOrder(context.Background(), validOrder())
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = svc.PlaceOrder(context.Background(), validOrder())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, model.RejectDailyLimit, res.RejectReason)
}

func TestGateway_RejectedOrdersDoNotConsumeDailyLimit(t *testing.T) {
	src := &fakeMetadataSource{tick: "0.01"}
	validator := NewValidator(&config.TradingConfig{MaxOrderNotionalUSD: 100})
	resolver := NewMetadataResolver(src, 5*time.Minute)
	risk := NewRiskEngine(NewMemoryUsageStore(), &config.TradingConfig{MaxDailyOrders: 1})
	svc := NewGatewayService(validator, resolver, risk, NewSession(true, nil), true)

	bad := validOrder()
	bad.Price = 1.5
	for i := 0; i < 3; i++ {
		res, err := svc.PlaceOrder(context.Background(), bad)
		require.NoError(t, err)
		assert.False(t, res.Success)
	}

	res, err := svc.PlaceOrder(context.Background(), validOrder())
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestGateway_GetOrderRequiresID(t *testing.T) {
	svc, _ := newTestGateway(t, true, nil)

	_, err := svc.GetOrder(context.Background(), "")
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrInvalidRequest, appErr.Type)
}

func TestGateway_ResetAuthClearsSession(t *testing.T) {
	sub := &fakeSubmitter{}
	svc, _ := newTestGateway(t, true, sub)

	_, err := svc.CancelOrder(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "authenticated", svc.SessionState())

	assert.True(t, svc.ResetAuth())
	assert.Equal(t, "unauthenticated", svc.SessionState())
}

// A rejected order must look the same whether the gateway runs live or dry:
// nothing was submitted, so nothing was simulated.
func TestGateway_RejectionShapeIdenticalAcrossModes(t *testing.T) {
	dry, _ := newTestGateway(t, true, nil)
	live, _ := newTestGateway(t, false, &fakeSubmitter{})

	req := validOrder()
	req.Price = 0.505 // misaligned at tick 0.01

	fromDry, err := dry.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	fromLive, err := live.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, fromDry.Simulated)
	assert.Equal(t, fromLive, fromDry)
}

func TestGateway_MarketParamsForceRefresh(t *testing.T) {
	svc, src := newTestGateway(t, true, nil)

	_, err := svc.MarketParams(context.Background(), "token-1", false)
	require.NoError(t, err)
	_, err = svc.MarketParams(context.Background(), "token-1", false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))

	_, err = svc.MarketParams(context.Background(), "token-1", true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&src.calls))
}
