package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GoPolymarket/polyagent/internal/config"
	"github.com/GoPolymarket/polyagent/internal/model"
	"github.com/GoPolymarket/polyagent/internal/pkg/logger"
	"github.com/GoPolymarket/polyagent/internal/pkg/metrics"
)

// UsageStore tracks rolling daily consumption of the trading limits. Days
// roll over at UTC midnight.
type UsageStore interface {
	DailyUsage(ctx context.Context) (orders int64, notionalUSD float64, err error)
	AddDailyUsage(ctx context.Context, orders int64, notionalUSD float64) error
}

// MemoryUsageStore keeps daily usage in process memory. It is the fallback
// when no Redis instance is configured; counters reset on restart.
type MemoryUsageStore struct {
	mu          sync.RWMutex
	dailyVolume map[string]float64
	dailyOrders map[string]int64
}

func NewMemoryUsageStore() *MemoryUsageStore {
	return &MemoryUsageStore{
		dailyVolume: make(map[string]float64),
		dailyOrders: make(map[string]int64),
	}
}

func (s *MemoryUsageStore) DailyUsage(_ context.Context) (int64, float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := dayKey()
	return s.dailyOrders[key], s.dailyVolume[key], nil
}

func (s *MemoryUsageStore) AddDailyUsage(_ context.Context, orders int64, notionalUSD float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := dayKey()
	s.dailyOrders[key] += orders
	s.dailyVolume[key] += notionalUSD
	return nil
}

func dayKey() string {
	return time.Now().UTC().Format("2006-01-02")
}

// RiskEngine enforces the rolling daily caps on order count and notional.
// A zero cap disables the corresponding check.
type RiskEngine struct {
	store          UsageStore
	maxDailyUSD    float64
	maxDailyOrders int64
}

func NewRiskEngine(store UsageStore, cfg *config.TradingConfig) *RiskEngine {
	return &RiskEngine{
		store:          store,
		maxDailyUSD:    cfg.MaxDailyNotionalUSD,
		maxDailyOrders: int64(cfg.MaxDailyOrders),
	}
}

// Allow checks whether adding the given notional would exceed a daily cap.
// Store errors fail open with a warning: a broken usage backend must not
// halt trading that the per-order checks already bound.
func (e *RiskEngine) Allow(ctx context.Context, notionalUSD decimal.Decimal) *Rejection {
	if e.maxDailyUSD <= 0 && e.maxDailyOrders <= 0 {
		return nil
	}

	orders, volume, err := e.store.DailyUsage(ctx)
	if err != nil {
		logger.Warn("daily usage lookup failed, allowing order", "error", err)
		return nil
	}

	if e.maxDailyOrders > 0 && orders >= e.maxDailyOrders {
		metrics.RiskRejects.WithLabelValues("daily_orders").Inc()
		return &Rejection{
			Reason: model.RejectDailyLimit,
			Detail: fmt.Sprintf("daily order count %d has reached the cap of %d", orders, e.maxDailyOrders),
		}
	}

	add, _ := notionalUSD.Float64()
	if e.maxDailyUSD > 0 && volume+add > e.maxDailyUSD {
		metrics.RiskRejects.WithLabelValues("daily_notional").Inc()
		return &Rejection{
			Reason: model.RejectDailyLimit,
			Detail: fmt.Sprintf("daily notional %.2f USD plus this order would exceed the cap of %.2f USD", volume, e.maxDailyUSD),
		}
	}

	return nil
}

// Record charges a successfully submitted order against the daily limits.
func (e *RiskEngine) Record(ctx context.Context, notionalUSD decimal.Decimal) {
	add, _ := notionalUSD.Float64()
	if err := e.store.AddDailyUsage(ctx, 1, add); err != nil {
		logger.Warn("daily usage update failed", "error", err)
	}
}
