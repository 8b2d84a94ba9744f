package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	polymarket "github.com/GoPolymarket/polymarket-go-sdk"
	sdkauth "github.com/GoPolymarket/polymarket-go-sdk/pkg/auth"
	orderbuilder "github.com/GoPolymarket/polymarket-go-sdk/pkg/clob"
	"github.com/GoPolymarket/polymarket-go-sdk/pkg/clob/clobtypes"
	sdktypes "github.com/GoPolymarket/polymarket-go-sdk/pkg/types"
	"github.com/shopspring/decimal"

	"github.com/GoPolymarket/polyagent/internal/clob"
	"github.com/GoPolymarket/polyagent/internal/model"
	"github.com/GoPolymarket/polyagent/internal/pkg/apperrors"
	"github.com/GoPolymarket/polyagent/internal/pkg/logger"
	"github.com/GoPolymarket/polyagent/internal/signer"
)

// LiveExecutor is the authenticated submitter and reader. Orders are built
// through the SDK order builder, signed locally with the fast signer, and
// submitted over the REST client with L2 HMAC headers.
type LiveExecutor struct {
	sdk         *polymarket.Client
	api         *clob.Client
	fastSigner  *signer.Signer
	buildSigner sdkauth.Signer
	owner       string         // L2 API key
	funder      common.Address // proxy wallet holding collateral, zero when the EOA funds directly
	maxSlippage float64
}

// NewLiveExecutor wires the authenticated execution path. owner is the L2
// API key the exchange associates resting orders with. funder, when
// non-empty, is the proxy wallet that holds collateral; orders are then
// placed with the proxy as maker and signed under the proxy scheme.
func NewLiveExecutor(sdk *polymarket.Client, api *clob.Client, fastSigner *signer.Signer, buildSigner sdkauth.Signer, owner, funder string, maxSlippage float64) *LiveExecutor {
	l := &LiveExecutor{
		sdk:         sdk,
		api:         api,
		fastSigner:  fastSigner,
		buildSigner: buildSigner,
		owner:       owner,
		maxSlippage: maxSlippage,
	}
	if strings.TrimSpace(funder) != "" {
		l.funder = common.HexToAddress(funder)
	}
	return l
}

func (l *LiveExecutor) PlaceOrder(ctx context.Context, req *model.OrderRequest, params *model.MarketTradingParams) (*model.OrderResult, error) {
	if rej := l.checkMaxSlippage(ctx, req); rej != nil {
		return &model.OrderResult{
			Success:        false,
			RejectReason:   rej.Reason,
			RejectDetail:   rej.Detail,
			RawNotionalUSD: req.Notional(),
		}, nil
	}

	signable, err := l.buildSignable(ctx, req, params)
	if err != nil {
		return nil, apperrors.WrapBackend(err, "order construction failed")
	}

	signature, err := l.fastSigner.SignOrder(toChainOrder(signable.Order))
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInternal, "order signing failed", err)
	}

	payload := &clob.OrderPayload{
		Order:     toWireOrder(signable.Order, signature),
		Owner:     l.owner,
		OrderType: string(signable.OrderType),
		PostOnly:  signable.PostOnly,
	}

	resp, err := l.api.PostOrder(ctx, payload)
	if err != nil {
		return nil, apperrors.WrapBackend(err, "order submission failed")
	}
	if !resp.Success {
		return nil, apperrors.Newf(apperrors.ErrBackend, "exchange rejected order: %s", resp.ErrorMsg)
	}

	logger.Info("order placed",
		"order_id", resp.OrderID,
		"token_id", req.TokenID,
		"side", req.Side,
		"price", req.Price,
		"size", req.Size,
		"status", resp.Status)

	return &model.OrderResult{
		Success:        true,
		Simulated:      false,
		OrderID:        resp.OrderID,
		Status:         resp.Status,
		RawNotionalUSD: req.Notional().Mul(params.FeeMultiplier()).Round(6),
	}, nil
}

func (l *LiveExecutor) buildSignable(ctx context.Context, req *model.OrderRequest, params *model.MarketTradingParams) (*clobtypes.SignableOrder, error) {
	builder := orderbuilder.NewOrderBuilder(l.sdk.CLOB, l.buildSigner).
		TokenID(req.TokenID).
		Price(req.Price).
		Size(req.Size).
		Side(req.Side).
		OrderType(parseOrderType(req.OrderType))
	if req.PostOnly != nil {
		builder.PostOnly(*req.PostOnly)
	}
	if req.Expiration > 0 {
		builder.ExpirationUnix(req.Expiration)
	}
	signable, err := builder.BuildSignableWithContext(ctx)
	if err != nil {
		return nil, err
	}
	if signable.Order.FeeRateBps.IsZero() && params.FeeRateBps > 0 {
		signable.Order.FeeRateBps = decimal.NewFromInt(params.FeeRateBps)
	}
	applyFunder(signable.Order, l.funder)
	return signable, nil
}

// applyFunder rewrites the maker to the proxy wallet when one is configured.
// The EOA stays on as signer and the signature type switches to the proxy
// scheme so the exchange verifies it against the proxy's owner.
func applyFunder(o *clobtypes.Order, funder common.Address) {
	if funder == (common.Address{}) || funder == o.Signer {
		return
	}
	o.Maker = funder
	sigType := int(sdkauth.SignatureProxy)
	o.SignatureType = &sigType
}

// checkMaxSlippage compares the limit price against the top of book. A zero
// configured slippage disables the check entirely so the gateway never
// fetches a book it does not need.
func (l *LiveExecutor) checkMaxSlippage(ctx context.Context, req *model.OrderRequest) *Rejection {
	if l.maxSlippage <= 0 {
		return nil
	}
	book, err := l.sdk.CLOB.OrderBook(ctx, &clobtypes.BookRequest{TokenID: req.TokenID})
	if err != nil {
		logger.Warn("order book fetch failed, skipping slippage check", "token_id", req.TokenID, "error", err)
		return nil
	}
	price := decimal.NewFromFloat(req.Price)
	slippage := decimal.NewFromFloat(l.maxSlippage)
	one := decimal.NewFromInt(1)

	switch strings.ToUpper(req.Side) {
	case model.SideBuy:
		if len(book.Asks) == 0 {
			return nil
		}
		bestAsk, err := decimal.NewFromString(book.Asks[0].Price)
		if err != nil {
			return nil
		}
		if price.GreaterThan(bestAsk.Mul(one.Add(slippage))) {
			return &Rejection{
				Reason: model.RejectSlippage,
				Detail: fmt.Sprintf("buy price %s exceeds best ask %s by more than %s", price, bestAsk, slippage),
			}
		}
	case model.SideSell:
		if len(book.Bids) == 0 {
			return nil
		}
		bestBid, err := decimal.NewFromString(book.Bids[0].Price)
		if err != nil {
			return nil
		}
		if price.LessThan(bestBid.Mul(one.Sub(slippage))) {
			return &Rejection{
				Reason: model.RejectSlippage,
				Detail: fmt.Sprintf("sell price %s undercuts best bid %s by more than %s", price, bestBid, slippage),
			}
		}
	}
	return nil
}

func (l *LiveExecutor) CancelOrder(ctx context.Context, orderID string) (*model.CancelResult, error) {
	resp, err := l.api.CancelOrder(ctx, orderID)
	if err != nil {
		return nil, apperrors.WrapBackend(err, "cancel failed")
	}
	for _, id := range resp.Canceled {
		if id == orderID {
			return &model.CancelResult{OrderID: orderID, Canceled: true}, nil
		}
	}
	reason := resp.NotCanceled[orderID]
	if reason == "" {
		reason = "order not canceled"
	}
	return &model.CancelResult{OrderID: orderID, Canceled: false, Reason: reason}, nil
}

func (l *LiveExecutor) CancelOrders(ctx context.Context, orderIDs []string) (*model.CancelAllResult, error) {
	resp, err := l.api.CancelOrders(ctx, orderIDs)
	if err != nil {
		return nil, apperrors.WrapBackend(err, "batch cancel failed")
	}
	return toCancelAllResult(resp), nil
}

func (l *LiveExecutor) CancelAll(ctx context.Context) (*model.CancelAllResult, error) {
	resp, err := l.api.CancelAll(ctx)
	if err != nil {
		return nil, apperrors.WrapBackend(err, "cancel all failed")
	}
	return toCancelAllResult(resp), nil
}

func (l *LiveExecutor) OpenOrders(ctx context.Context, market, assetID string) ([]model.OrderSummary, error) {
	orders, err := l.api.OpenOrders(ctx, market, assetID)
	if err != nil {
		return nil, apperrors.WrapBackend(err, "open orders lookup failed")
	}
	out := make([]model.OrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderSummary(&o))
	}
	return out, nil
}

func (l *LiveExecutor) Order(ctx context.Context, orderID string) (*model.OrderSummary, error) {
	o, err := l.api.Order(ctx, orderID)
	if err != nil {
		if errors.Is(err, clob.ErrNotFound) {
			return nil, apperrors.Newf(apperrors.ErrOrderNotFound, "order %s not found", orderID)
		}
		return nil, apperrors.WrapBackend(err, "order lookup failed")
	}
	summary := toOrderSummary(o)
	return &summary, nil
}

func (l *LiveExecutor) BalanceAllowance(ctx context.Context, assetType, tokenID string) (*model.BalanceInfo, error) {
	bal, err := l.api.BalanceAllowance(ctx, assetType, tokenID)
	if err != nil {
		return nil, apperrors.WrapBackend(err, "balance lookup failed")
	}
	return &model.BalanceInfo{
		AssetType: assetType,
		TokenID:   tokenID,
		Balance:   bal.Balance,
		Allowance: bal.Allowance,
	}, nil
}

func toCancelAllResult(resp *clob.CancelResponse) *model.CancelAllResult {
	out := &model.CancelAllResult{Canceled: resp.Canceled}
	if out.Canceled == nil {
		out.Canceled = []string{}
	}
	if len(resp.NotCanceled) > 0 {
		out.NotCanceled = resp.NotCanceled
	}
	return out
}

func toOrderSummary(o *clob.OpenOrder) model.OrderSummary {
	return model.OrderSummary{
		ID:           o.ID,
		Status:       o.Status,
		Market:       o.Market,
		AssetID:      o.AssetID,
		Side:         o.Side,
		Price:        o.Price,
		OriginalSize: o.OriginalSize,
		SizeMatched:  o.SizeMatched,
		OrderType:    o.OrderType,
		Expiration:   o.Expiration,
		CreatedAt:    o.CreatedAt,
	}
}

// toChainOrder flattens the SDK order into the struct covered by the
// EIP-712 signature.
func toChainOrder(o *clobtypes.Order) *signer.Order {
	side := uint8(0) // BUY
	if strings.ToUpper(o.Side) == model.SideSell {
		side = 1
	}
	sigType := uint8(0)
	if o.SignatureType != nil {
		sigType = uint8(*o.SignatureType)
	}
	return &signer.Order{
		Salt:          o.Salt.Int,
		Maker:         o.Maker,
		Signer:        o.Signer,
		Taker:         o.Taker,
		TokenID:       o.TokenID.Int,
		MakerAmount:   o.MakerAmount.BigInt(),
		TakerAmount:   o.TakerAmount.BigInt(),
		Expiration:    o.Expiration.Int,
		Nonce:         o.Nonce.Int,
		FeeRateBps:    o.FeeRateBps.BigInt(),
		Side:          side,
		SignatureType: sigType,
	}
}

// toWireOrder renders the SDK order plus signature into the REST body shape.
func toWireOrder(o *clobtypes.Order, signature string) clob.SignedOrder {
	sigType := 0
	if o.SignatureType != nil {
		sigType = *o.SignatureType
	}
	return clob.SignedOrder{
		Salt:          u256String(o.Salt),
		Maker:         o.Maker.Hex(),
		Signer:        o.Signer.Hex(),
		Taker:         o.Taker.Hex(),
		TokenID:       u256String(o.TokenID),
		MakerAmount:   o.MakerAmount.BigInt(),
		TakerAmount:   o.TakerAmount.BigInt(),
		Side:          o.Side,
		Expiration:    u256String(o.Expiration),
		Nonce:         u256String(o.Nonce),
		FeeRateBps:    o.FeeRateBps.BigInt().String(),
		SignatureType: sigType,
		Signature:     signature,
	}
}

func u256String(u sdktypes.U256) string {
	if u.Int == nil {
		return "0"
	}
	return u.Int.String()
}

func parseOrderType(raw string) clobtypes.OrderType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(clobtypes.OrderTypeGTD):
		return clobtypes.OrderTypeGTD
	case string(clobtypes.OrderTypeFAK):
		return clobtypes.OrderTypeFAK
	case string(clobtypes.OrderTypeFOK):
		return clobtypes.OrderTypeFOK
	default:
		return clobtypes.OrderTypeGTC
	}
}

