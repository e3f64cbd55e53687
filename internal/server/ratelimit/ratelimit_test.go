package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLimiter builds a limiter with a controllable clock and no background
// eviction.
func testLimiter(config *Config) (*Limiter, *time.Time) {
	if config.CleanupInterval != 0 {
		panic("use evictBefore directly in tests")
	}
	l := NewLimiter(config)
	now := time.Now()
	l.now = func() time.Time { return now }
	return l, &now
}

func triggerConfig() *Config {
	return &Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/ingestion/trigger", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		},
	}
}

func TestLimiterBurstThenRefill(t *testing.T) {
	l, now := testLimiter(triggerConfig())

	// Burst of 2, then denied
	for i := 0; i < 2; i++ {
		allowed, _ := l.Allow("10.0.0.1", "/ingestion/trigger", "POST")
		require.True(t, allowed, "request %d within burst", i+1)
	}
	allowed, info := l.Allow("10.0.0.1", "/ingestion/trigger", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 10, info.Limit)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
	assert.True(t, info.ResetTime.After(*now))

	// 10 per hour refills one token every 6 minutes
	*now = now.Add(7 * time.Minute)
	allowed, _ = l.Allow("10.0.0.1", "/ingestion/trigger", "POST")
	assert.True(t, allowed, "bucket refills over time")
}

func TestLimiterClientsAreIsolated(t *testing.T) {
	l, _ := testLimiter(triggerConfig())

	for i := 0; i < 2; i++ {
		allowed, _ := l.Allow("10.0.0.1", "/ingestion/trigger", "POST")
		require.True(t, allowed)
	}
	allowed, _ := l.Allow("10.0.0.1", "/ingestion/trigger", "POST")
	require.False(t, allowed)

	// A different client still has a full bucket
	allowed, _ = l.Allow("10.0.0.2", "/ingestion/trigger", "POST")
	assert.True(t, allowed)
}

func TestLimiterDefaultTier(t *testing.T) {
	l, _ := testLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  2,
		DefaultWindow: time.Minute,
	})

	// Unlisted routes share the default limit per client+route
	allowed, info := l.Allow("10.0.0.1", "/postings", "GET")
	require.True(t, allowed)
	assert.Equal(t, 2, info.Limit)

	allowed, _ = l.Allow("10.0.0.1", "/postings", "GET")
	require.True(t, allowed)
	allowed, _ = l.Allow("10.0.0.1", "/postings", "GET")
	assert.False(t, allowed)

	// A different route gets its own default bucket
	allowed, _ = l.Allow("10.0.0.1", "/notifications", "GET")
	assert.True(t, allowed)
}

func TestLimiterDisabledAndTrusted(t *testing.T) {
	disabled, _ := testLimiter(&Config{})
	for i := 0; i < 100; i++ {
		allowed, info := disabled.Allow("10.0.0.1", "/auth/login", "POST")
		require.True(t, allowed)
		require.Zero(t, info.Limit)
	}

	trusted, _ := testLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1,
		DefaultWindow:   time.Minute,
		Trusted:         map[string]bool{"10.0.0.9": true},
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	for i := 0; i < 100; i++ {
		allowed, _ := trusted.Allow("10.0.0.9", "/ingestion/trigger", "POST")
		require.True(t, allowed)
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		name      string
		path      string
		method    string
		wantPath  string
		wantLimit int
		wantNil   bool
	}{
		{"exact trigger", "/ingestion/trigger", "POST", "/ingestion/trigger", 10, false},
		{"exact login", "/auth/login", "POST", "/auth/login", 20, false},
		{"profile update by prefix", "/profiles/9b2e7c80", "PUT", "/profiles/", 100, false},
		{"profile delete by prefix", "/profiles/9b2e7c80", "DELETE", "/profiles/", 100, false},
		{"scheduler start by prefix", "/scheduler/start", "POST", "/scheduler/", 100, false},
		{"method mismatch", "/ingestion/trigger", "GET", "", 0, true},
		{"unlisted read", "/postings", "GET", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}

	t.Run("health check is unlimited", func(t *testing.T) {
		got := MatchEndpoint("/health", "GET", configs)
		require.NotNil(t, got)
		assert.Zero(t, got.Limit)
	})
}

func TestEvictIdleBuckets(t *testing.T) {
	l, now := testLimiter(triggerConfig())

	l.Allow("10.0.0.1", "/ingestion/trigger", "POST")
	require.Len(t, l.buckets, 1)

	l.evictBefore(now.Add(-time.Hour))
	assert.Len(t, l.buckets, 1, "recently used buckets survive")

	l.evictBefore(now.Add(time.Hour))
	assert.Empty(t, l.buckets, "idle buckets are dropped")
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "50")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_TRUSTED_IPS", "10.0.0.9, 10.0.0.10")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.Equal(t, map[string]bool{"10.0.0.9": true, "10.0.0.10": true}, cfg.Trusted)
	assert.NotEmpty(t, cfg.EndpointConfigs)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}

func TestLimiterStopIsIdempotent(t *testing.T) {
	l := NewLimiter(triggerConfig())
	l.Stop()
	l.Stop()
}
