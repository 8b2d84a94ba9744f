package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/GoPolymarket/polyagent/internal/clob"
	"github.com/GoPolymarket/polyagent/internal/model"
	"github.com/GoPolymarket/polyagent/internal/pkg/apperrors"
	"github.com/GoPolymarket/polyagent/internal/pkg/logger"
	"github.com/GoPolymarket/polyagent/internal/pkg/metrics"
)

// MetadataSource fetches per-market trading parameters from the exchange.
type MetadataSource interface {
	TickSize(ctx context.Context, tokenID string) (string, error)
	NegRisk(ctx context.Context, tokenID string) (bool, error)
	FeeRateBps(ctx context.Context, tokenID string) (int64, error)
}

// MetadataResolver caches market trading parameters with a TTL and collapses
// concurrent misses for the same token into a single upstream fetch.
type MetadataResolver struct {
	source MetadataSource
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]*model.MarketTradingParams

	group singleflight.Group
}

func NewMetadataResolver(source MetadataSource, ttl time.Duration) *MetadataResolver {
	return &MetadataResolver{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[string]*model.MarketTradingParams),
	}
}

// Resolve returns the trading parameters for a token, serving from cache
// while the entry is fresh.
func (r *MetadataResolver) Resolve(ctx context.Context, tokenID string) (*model.MarketTradingParams, error) {
	if tokenID == "" {
		return nil, apperrors.NewInvalidRequest("token_id is required")
	}

	r.mu.RLock()
	entry, ok := r.cache[tokenID]
	r.mu.RUnlock()
	if ok && r.now().Sub(entry.FetchedAt) < r.ttl {
		metrics.MetadataLookups.WithLabelValues("hit").Inc()
		return entry, nil
	}

	metrics.MetadataLookups.WithLabelValues("miss").Inc()
	return r.fetch(ctx, tokenID)
}

// Refresh bypasses the cache and fetches fresh parameters, replacing any
// cached entry on success.
func (r *MetadataResolver) Refresh(ctx context.Context, tokenID string) (*model.MarketTradingParams, error) {
	if tokenID == "" {
		return nil, apperrors.NewInvalidRequest("token_id is required")
	}
	metrics.MetadataLookups.WithLabelValues("refresh").Inc()
	return r.fetch(ctx, tokenID)
}

// Invalidate drops the cached entry for a token, if present.
func (r *MetadataResolver) Invalidate(tokenID string) {
	r.mu.Lock()
	delete(r.cache, tokenID)
	r.mu.Unlock()
}

func (r *MetadataResolver) fetch(ctx context.Context, tokenID string) (*model.MarketTradingParams, error) {
	v, err, _ := r.group.Do(tokenID, func() (interface{}, error) {
		params, err := r.fetchOne(ctx, tokenID)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[tokenID] = params
		r.mu.Unlock()
		return params, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.MarketTradingParams), nil
}

func (r *MetadataResolver) fetchOne(ctx context.Context, tokenID string) (*model.MarketTradingParams, error) {
	rawTick, err := r.source.TickSize(ctx, tokenID)
	if err != nil {
		return nil, r.lookupError(tokenID, err)
	}
	tick, err := decimal.NewFromString(rawTick)
	if err != nil || tick.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.Newf(apperrors.ErrBackend, "exchange returned invalid tick size %q for token %s", rawTick, tokenID)
	}
	negRisk, err := r.source.NegRisk(ctx, tokenID)
	if err != nil {
		return nil, r.lookupError(tokenID, err)
	}
	feeRate, err := r.source.FeeRateBps(ctx, tokenID)
	if err != nil {
		return nil, r.lookupError(tokenID, err)
	}

	params := &model.MarketTradingParams{
		TokenID:    tokenID,
		TickSize:   tick,
		NegRisk:    negRisk,
		FeeRateBps: feeRate,
		FetchedAt:  r.now(),
	}
	logger.Debug("market parameters fetched",
		"token_id", tokenID,
		"tick_size", tick.String(),
		"neg_risk", negRisk,
		"fee_rate_bps", feeRate)
	return params, nil
}

func (r *MetadataResolver) lookupError(tokenID string, err error) error {
	if errors.Is(err, clob.ErrNotFound) {
		metrics.MetadataLookups.WithLabelValues("unknown").Inc()
		return apperrors.Newf(apperrors.ErrUnknownMarket, "no tradable market for token %s", tokenID)
	}
	metrics.MetadataLookups.WithLabelValues("error").Inc()
	return apperrors.WrapBackend(err, "market parameter lookup failed")
}
