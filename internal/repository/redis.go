package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoPolymarket/polyagent/internal/config"
)

// NewRedisClient connects and pings the configured Redis instance.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisUsageRepo tracks daily trading usage in a Redis hash per UTC day, so
// limits survive restarts and are shared across replicas.
type RedisUsageRepo struct {
	client *redis.Client
	prefix string
}

func NewRedisUsageRepo(client *redis.Client) *RedisUsageRepo {
	return &RedisUsageRepo{client: client, prefix: "polyagent:usage"}
}

func (r *RedisUsageRepo) DailyUsage(ctx context.Context) (int64, float64, error) {
	key := r.makeKey()

	orders, err := r.client.HGet(ctx, key, "orders").Int64()
	if err != nil && err != redis.Nil {
		return 0, 0, err
	}
	volume, err := r.client.HGet(ctx, key, "volume").Float64()
	if err != nil && err != redis.Nil {
		return 0, 0, err
	}
	return orders, volume, nil
}

func (r *RedisUsageRepo) AddDailyUsage(ctx context.Context, orders int64, notionalUSD float64) error {
	key := r.makeKey()

	pipe := r.client.TxPipeline()
	if orders != 0 {
		pipe.HIncrBy(ctx, key, "orders", orders)
	}
	if notionalUSD != 0 {
		pipe.HIncrByFloat(ctx, key, "volume", notionalUSD)
	}
	// Keep yesterday around for inspection, then let the key lapse.
	pipe.Expire(ctx, key, 48*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisUsageRepo) makeKey() string {
	return r.prefix + ":" + time.Now().UTC().Format("2006-01-02")
}
