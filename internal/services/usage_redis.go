package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/WisemanUCE/omegaai-backend/internal/config"
	"github.com/WisemanUCE/omegaai-backend/internal/models"
	apperrors "github.com/WisemanUCE/omegaai-backend/internal/pkg/errors"
)

// redisUsageStore keeps the per-period counters in Redis so several instances
// can share them. Reserve counts the call up front and undoes it on rejection
// or Release; Commit is a no-op because the reservation already counted it.
type redisUsageStore struct {
	client *redis.Client
	quotas *config.QuotaConfig
	now    func() time.Time
}

func NewRedisUsageStore(cfg *config.CacheConfig, quotas *config.QuotaConfig) (UsageStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &redisUsageStore{client: client, quotas: quotas, now: time.Now}, nil
}

func (s *redisUsageStore) Reserve(ctx context.Context, subscriberID, model string) error {
	key := s.usageKey(subscriberID, model)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("usage store: %v", err)
	}
	if count == 1 {
		// Keep stale period keys from accumulating.
		s.client.Expire(ctx, key, 32*24*time.Hour)
	}

	limit := s.quotas.Limit(model)
	if count > int64(limit) {
		// Roll back on a detached context so a cancellation racing the
		// rejection cannot strand the over-limit INCR.
		rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		s.client.Decr(rollbackCtx, key)
		return fmt.Errorf("%w: %s at %d/%d for %s", apperrors.ErrQuotaExceeded, subscriberID, limit, limit, model)
	}
	return nil
}

func (s *redisUsageStore) Commit(ctx context.Context, subscriberID, model string) error {
	return nil
}

// Release often runs with the request context already canceled (a client
// disconnect is what aborted the upstream call), so the DECR goes out on a
// detached context: the reservation must be returned either way.
func (s *redisUsageStore) Release(ctx context.Context, subscriberID, model string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return s.client.Decr(ctx, s.usageKey(subscriberID, model)).Err()
}

func (s *redisUsageStore) Stats(ctx context.Context, subscriberID string) ([]UsageStats, error) {
	_, periodEnd := currentPeriod(s.now())

	stats := make([]UsageStats, 0, len(models.SupportedModels()))
	for _, model := range models.SupportedModels() {
		used, err := s.client.Get(ctx, s.usageKey(subscriberID, model)).Int()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("usage store: %v", err)
		}

		limit := s.quotas.Limit(model)
		stats = append(stats, UsageStats{
			Model:             model,
			CurrentCount:      used,
			Limit:             limit,
			RemainingRequests: limit - used,
			PeriodEnd:         periodEnd,
		})
	}
	return stats, nil
}

func (s *redisUsageStore) usageKey(subscriberID, model string) string {
	return fmt.Sprintf("usage:%s:%s:%s", s.now().UTC().Format("2006-01"), subscriberID, model)
}
