package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/restock/backend-go/internal/config"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

func TestPlanKeyIsStablePerPolicy(t *testing.T) {
	a := planKey(3, domain.PlanPolicy{BaseTargetDays: 60, UseSmartLifecycle: true})
	b := planKey(3, domain.PlanPolicy{BaseTargetDays: 60, UseSmartLifecycle: true})
	c := planKey(3, domain.PlanPolicy{BaseTargetDays: 60, UseSmartLifecycle: false})
	d := planKey(3, domain.PlanPolicy{BaseTargetDays: 90, UseSmartLifecycle: true})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.True(t, strings.HasPrefix(a, planKeyPrefix+":3:"))
	assert.Len(t, strings.TrimPrefix(a, planKeyPrefix+":3:"), 40)
}

func TestPlanKeyChangesWithGeneration(t *testing.T) {
	policy := domain.PlanPolicy{BaseTargetDays: 60, UseSmartLifecycle: true}
	assert.NotEqual(t, planKey(1, policy), planKey(2, policy))
	// invalidation scans the plan prefix and must not delete the generation counter
	assert.False(t, strings.HasPrefix(generationKey, planKeyPrefix))
}

func TestNewPlanCacheDisabledIsNoop(t *testing.T) {
	c, err := NewPlanCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	policy := domain.PlanPolicy{BaseTargetDays: 60}
	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.SetPlan(ctx, gen, policy, []domain.ReplenishmentSuggestion{{SKU: "a"}}))

	plan, ok, err := c.GetPlan(ctx, gen, policy)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, plan)
	assert.NoError(t, c.InvalidateAll(ctx))
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@redis.internal:6379/1"})
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 1, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"})
	assert.Error(t, err)
}

func TestRedisPlanCacheUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisPlanCache(client, 0)
	_, ok, err := c.GetPlan(context.Background(), 0, domain.PlanPolicy{})
	assert.Error(t, err)
	assert.False(t, ok)

	_, err = c.Generation(context.Background())
	assert.Error(t, err)
	assert.Error(t, c.InvalidateAll(context.Background()))
}
