package retry

import (
	"fmt"
	"time"
)

// Strategy 重试间隔策略
type Strategy interface {
	// Next 返回第 retried 次失败后的等待间隔
	// ok 为 false 表示不应再重试
	Next(retried int32) (interval time.Duration, ok bool)
}

// NewRetry 根据配置构建重试策略，配置非法时返回错误
func NewRetry(cfg Config) (Strategy, error) {
	switch cfg.Type {
	case "fixed":
		if cfg.FixedInterval == nil {
			return nil, fmt.Errorf("缺少 fixedInterval 配置")
		}
		return &fixedIntervalStrategy{
			interval:   cfg.FixedInterval.Interval,
			maxRetries: cfg.FixedInterval.MaxRetries,
		}, nil
	case "exponential":
		if cfg.ExponentialBackoff == nil {
			return nil, fmt.Errorf("缺少 exponentialBackoff 配置")
		}
		return &exponentialBackoffStrategy{
			initialInterval: cfg.ExponentialBackoff.InitialInterval,
			maxInterval:     cfg.ExponentialBackoff.MaxInterval,
			maxRetries:      cfg.ExponentialBackoff.MaxRetries,
		}, nil
	default:
		return nil, fmt.Errorf("unknown retry type: %s", cfg.Type)
	}
}

type Config struct {
	Type               string                    `json:"type"`
	FixedInterval      *FixedIntervalConfig      `json:"fixedInterval"`
	ExponentialBackoff *ExponentialBackoffConfig `json:"exponentialBackoff"`
}

type ExponentialBackoffConfig struct {
	// 初始重试间隔
	InitialInterval time.Duration `json:"initialInterval"`
	MaxInterval     time.Duration `json:"maxInterval"`
	// 最大重试次数
	MaxRetries int32 `json:"maxRetries"`
}

type FixedIntervalConfig struct {
	MaxRetries int32         `json:"maxRetries"`
	Interval   time.Duration `json:"interval"`
}

type fixedIntervalStrategy struct {
	interval   time.Duration
	maxRetries int32
}

func (s *fixedIntervalStrategy) Next(retried int32) (time.Duration, bool) {
	if retried >= s.maxRetries {
		return 0, false
	}
	return s.interval, true
}

type exponentialBackoffStrategy struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	maxRetries      int32
}

func (s *exponentialBackoffStrategy) Next(retried int32) (time.Duration, bool) {
	if retried >= s.maxRetries {
		return 0, false
	}
	interval := s.initialInterval << retried
	if interval <= 0 || interval > s.maxInterval {
		interval = s.maxInterval
	}
	return interval, true
}
