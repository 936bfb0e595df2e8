package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetry(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		cfg         Config
		expectError bool
	}{
		{
			name: "固定间隔",
			cfg: Config{
				Type:          "fixed",
				FixedInterval: &FixedIntervalConfig{MaxRetries: 3, Interval: time.Second},
			},
		},
		{
			name: "指数退避",
			cfg: Config{
				Type: "exponential",
				ExponentialBackoff: &ExponentialBackoffConfig{
					InitialInterval: 100 * time.Millisecond,
					MaxInterval:     time.Second,
					MaxRetries:      5,
				},
			},
		},
		{
			name:        "未知类型",
			cfg:         Config{Type: "unknown"},
			expectError: true,
		},
		{
			name:        "固定间隔缺配置",
			cfg:         Config{Type: "fixed"},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			strategy, err := NewRetry(tc.cfg)
			if tc.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, strategy)
		})
	}
}

func TestFixedIntervalStrategy(t *testing.T) {
	t.Parallel()
	strategy, err := NewRetry(Config{
		Type:          "fixed",
		FixedInterval: &FixedIntervalConfig{MaxRetries: 2, Interval: time.Second},
	})
	require.NoError(t, err)

	interval, ok := strategy.Next(0)
	assert.True(t, ok)
	assert.Equal(t, time.Second, interval)

	interval, ok = strategy.Next(1)
	assert.True(t, ok)
	assert.Equal(t, time.Second, interval)

	_, ok = strategy.Next(2)
	assert.False(t, ok)
}

func TestExponentialBackoffStrategy(t *testing.T) {
	t.Parallel()
	strategy, err := NewRetry(Config{
		Type: "exponential",
		ExponentialBackoff: &ExponentialBackoffConfig{
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     300 * time.Millisecond,
			MaxRetries:      4,
		},
	})
	require.NoError(t, err)

	interval, ok := strategy.Next(0)
	assert.True(t, ok)
	assert.Equal(t, 100*time.Millisecond, interval)

	interval, ok = strategy.Next(1)
	assert.True(t, ok)
	assert.Equal(t, 200*time.Millisecond, interval)

	// 超过上限后封顶
	interval, ok = strategy.Next(2)
	assert.True(t, ok)
	assert.Equal(t, 300*time.Millisecond, interval)

	_, ok = strategy.Next(4)
	assert.False(t, ok)
}
