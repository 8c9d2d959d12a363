package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/restock/backend-go/internal/config"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

const (
	planKeyPrefix     = "replenishment:plan"
	generationKey     = "replenishment:generation"
	planScanBatchSize = 100
)

// PlanCache stores replenishment plans keyed by the policy that produced them.
//
// Plans live under a generation that InvalidateAll advances. Callers read the
// generation before loading records and store the plan under it, so a plan
// computed across an invalidation lands in a retired generation and is never served.
type PlanCache interface {
	Generation(ctx context.Context) (int64, error)
	GetPlan(ctx context.Context, generation int64, policy domain.PlanPolicy) ([]domain.ReplenishmentSuggestion, bool, error)
	SetPlan(ctx context.Context, generation int64, policy domain.PlanPolicy, plan []domain.ReplenishmentSuggestion) error
	InvalidateAll(ctx context.Context) error
}

type redisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPlanCache struct{}

// NewPlanCache returns a Redis-backed cache, or a no-op cache when caching is disabled.
func NewPlanCache(cfg config.CacheConfig) (PlanCache, error) {
	if !cfg.Enabled {
		return &noopPlanCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisPlanCache(client, time.Duration(cfg.PlanTTLSeconds)*time.Second), nil
}

// NewRedisPlanCache wraps an existing client. A non-positive ttl falls back to the default.
func NewRedisPlanCache(client *redis.Client, ttl time.Duration) PlanCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisPlanCache{client: client, ttl: ttl}
}

func NewNoopPlanCache() PlanCache {
	return &noopPlanCache{}
}

func (c *redisPlanCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

func (c *redisPlanCache) GetPlan(ctx context.Context, generation int64, policy domain.PlanPolicy) ([]domain.ReplenishmentSuggestion, bool, error) {
	payload, err := c.client.Get(ctx, planKey(generation, policy)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var plan []domain.ReplenishmentSuggestion
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, false, fmt.Errorf("decode plan cache: %w", err)
	}

	return plan, true, nil
}

func (c *redisPlanCache) SetPlan(ctx context.Context, generation int64, policy domain.PlanPolicy, plan []domain.ReplenishmentSuggestion) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan cache: %w", err)
	}

	if err := c.client.Set(ctx, planKey(generation, policy), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateAll retires the current generation, then drops stored plans.
func (c *redisPlanCache) InvalidateAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("redis incr generation failed: %w", err)
	}
	return deleteKeysWithPrefix(ctx, c.client, planKeyPrefix, planScanBatchSize)
}

func (n *noopPlanCache) Generation(ctx context.Context) (int64, error) {
	return 0, nil
}

func (n *noopPlanCache) GetPlan(ctx context.Context, generation int64, policy domain.PlanPolicy) ([]domain.ReplenishmentSuggestion, bool, error) {
	return nil, false, nil
}

func (n *noopPlanCache) SetPlan(ctx context.Context, generation int64, policy domain.PlanPolicy, plan []domain.ReplenishmentSuggestion) error {
	return nil
}

func (n *noopPlanCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func planKey(generation int64, policy domain.PlanPolicy) string {
	return fmt.Sprintf("%s:%d:%s", planKeyPrefix, generation, policyHash(policy))
}

func policyHash(policy domain.PlanPolicy) string {
	raw := fmt.Sprintf("base_target_days=%d|smart_lifecycle=%t", policy.BaseTargetDays, policy.UseSmartLifecycle)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
