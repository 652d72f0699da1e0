package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyQuotaDeniesAtLimit(t *testing.T) {
	quota := NewDailyQuota(3)

	for i := 0; i < 3; i++ {
		require.NoError(t, quota.Consume("user-1"))
	}
	assert.Equal(t, 0, quota.Remaining("user-1"))

	err := quota.Consume("user-1")
	require.Error(t, err)
	var qe *QuotaExceededError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "user-1", qe.UserID)
	assert.Equal(t, 3, qe.MaxCalls)

	// Other users are unaffected.
	assert.NoError(t, quota.Consume("user-2"))
}

func TestDailyQuotaResetsOnNewDay(t *testing.T) {
	current := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	quota := NewDailyQuota(2)
	quota.now = func() time.Time { return current }

	require.NoError(t, quota.Consume("user-1"))
	require.NoError(t, quota.Consume("user-1"))
	require.Error(t, quota.Consume("user-1"))

	current = current.Add(2 * time.Hour)
	assert.Equal(t, 2, quota.Remaining("user-1"))
	assert.NoError(t, quota.Consume("user-1"))
}

func TestDailyQuotaDisabledWhenZero(t *testing.T) {
	quota := NewDailyQuota(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, quota.Consume("user-1"))
	}
	assert.Equal(t, -1, quota.Remaining("user-1"))
}

func TestProviderPacerWait(t *testing.T) {
	limiter := NewProviderLimiter(RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 10})
	pacer := NewProviderPacer(limiter, "kiwi")

	for i := 0; i < 5; i++ {
		require.NoError(t, pacer.Wait(context.Background()))
	}
}

func TestProviderLimiterSeparateProviders(t *testing.T) {
	limiter := NewProviderLimiterWithDefaults()
	a := limiter.GetLimiter("kiwi")
	b := limiter.GetLimiter("other")
	assert.NotSame(t, a, b)
	assert.Same(t, a, limiter.GetLimiter("kiwi"))
}
