package tracing

import (
	"context"
	"strconv"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/service/channel"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Channel 为渠道适配器添加链路追踪的装饰器
type Channel struct {
	channel channel.Channel
	tracer  trace.Tracer
}

// NewChannel 创建一个新的带有链路追踪的渠道适配器
func NewChannel(ch channel.Channel) *Channel {
	return &Channel{
		channel: ch,
		tracer:  otel.Tracer("rental-notification/channel"),
	}
}

func (c *Channel) Name() domain.Channel {
	return c.channel.Name()
}

func (c *Channel) Send(ctx context.Context, notification domain.Notification) (domain.ChannelResult, error) {
	ctx, span := c.tracer.Start(ctx, "Channel.Send",
		trace.WithAttributes(
			attribute.String("notification.id", strconv.FormatUint(notification.ID, 10)),
			attribute.String("notification.type", string(notification.Type)),
			attribute.String("notification.channel", string(c.Name())),
		))
	defer span.End()

	result, err := c.channel.Send(ctx, notification)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.Bool("notification.success", result.Success),
			attribute.String("notification.providerMessageId", result.ProviderMessageID),
		)
	}

	return result, err
}
