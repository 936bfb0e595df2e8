package channel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"
	"gitee.com/flycash/rental-notification/internal/repository"
	"gitee.com/flycash/rental-notification/internal/service/provider/push"

	"github.com/gotomicro/ego/core/elog"
)

const (
	// 推送标题和正文的长度上限，超出部分截断
	maxPushTitleLen = 100
	maxPushBodyLen  = 500
)

// pushChannel 推送渠道适配器
// 一个用户可能绑定多台设备，逐个令牌推送，任一成功即视为渠道成功
type pushChannel struct {
	client  push.Client
	tokens  repository.DeviceTokenRepository
	timeout time.Duration
	logger  *elog.Component
}

// NewPushChannel 创建推送渠道适配器
func NewPushChannel(client push.Client, tokens repository.DeviceTokenRepository, timeout time.Duration) Channel {
	return &pushChannel{
		client:  client,
		tokens:  tokens,
		timeout: timeout,
		logger:  elog.DefaultLogger,
	}
}

func (p *pushChannel) Name() domain.Channel {
	return domain.ChannelPush
}

func (p *pushChannel) Send(ctx context.Context, notification domain.Notification) (domain.ChannelResult, error) {
	tokens, err := p.tokens.FindByUserID(ctx, notification.UserID)
	if err != nil {
		return failedResult(p.Name(), fmt.Errorf("%w: 查询设备令牌失败: %w", errs.ErrChannelSendFailed, err)), nil
	}
	if len(tokens) == 0 {
		return failedResult(p.Name(), fmt.Errorf("%w: 用户无可用设备令牌", errs.ErrChannelSendFailed)), nil
	}

	msg := push.Message{
		Title: truncate(notification.Title, maxPushTitleLen),
		Body:  truncate(notification.Message, maxPushBodyLen),
		Data:  notification.Data,
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var messageIDs []string
	var lastErr error
	for _, token := range tokens {
		msgID, sendErr := p.client.Send(sendCtx, token.Token, msg)
		if sendErr == nil {
			messageIDs = append(messageIDs, msgID)
			continue
		}
		if errors.Is(sendErr, push.ErrInvalidToken) {
			// 令牌永久失效，顺手清理，清理失败不影响本次发送结果
			if rmErr := p.tokens.Remove(ctx, token.Token); rmErr != nil {
				p.logger.Warn("清理失效设备令牌失败",
					elog.Int64("userID", notification.UserID),
					elog.FieldErr(rmErr))
			}
			continue
		}
		lastErr = sendErr
	}

	if len(messageIDs) == 0 {
		if lastErr == nil {
			lastErr = errors.New("全部设备令牌已失效")
		}
		return failedResult(p.Name(), fmt.Errorf("%w: %w", errs.ErrChannelSendFailed, lastErr)), nil
	}

	return domain.ChannelResult{
		Channel:           p.Name(),
		Success:           true,
		ProviderMessageID: strings.Join(messageIDs, ","),
		DeliveredAt:       time.Now(),
	}, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
