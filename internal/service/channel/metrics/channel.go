// Channel 为渠道适配器添加指标收集的装饰器
package metrics

import (
	"context"
	"sync"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/service/channel"

	"github.com/prometheus/client_golang/prometheus"
)

// 指标向量在包级共享，按 channel 标签区分各渠道
// 注册只发生一次，装饰多个渠道不会重复注册
var (
	registerOnce sync.Once

	sendDurationSummary *prometheus.SummaryVec
	sendCounter         *prometheus.CounterVec
	sendStatusCounter   *prometheus.CounterVec
)

func initCollectors() {
	sendDurationSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "channel_send_duration_seconds",
			Help:       "渠道发送通知耗时统计（秒）",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
			MaxAge:     time.Minute * 5,
		},
		[]string{"channel", "success"},
	)

	sendCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_send_total",
			Help: "渠道发送通知总数",
		},
		[]string{"channel"},
	)

	sendStatusCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_send_status_total",
			Help: "渠道发送通知结果统计",
		},
		[]string{"channel", "success"},
	)

	prometheus.MustRegister(sendDurationSummary, sendCounter, sendStatusCounter)
}

// Channel 为渠道适配器添加指标收集的装饰器
type Channel struct {
	channel channel.Channel
}

// NewChannel 创建一个新的带有指标收集的渠道适配器
func NewChannel(ch channel.Channel) *Channel {
	registerOnce.Do(initCollectors)
	return &Channel{
		channel: ch,
	}
}

func (c *Channel) Name() domain.Channel {
	return c.channel.Name()
}

// Send 发送通知并记录指标
func (c *Channel) Send(ctx context.Context, notification domain.Notification) (domain.ChannelResult, error) {
	startTime := time.Now()

	sendCounter.WithLabelValues(string(c.Name())).Inc()

	result, err := c.channel.Send(ctx, notification)

	duration := time.Since(startTime).Seconds()
	success := "false"
	if err == nil && result.Success {
		success = "true"
	}

	sendStatusCounter.WithLabelValues(string(c.Name()), success).Inc()
	sendDurationSummary.WithLabelValues(string(c.Name()), success).Observe(duration)

	return result, err
}
