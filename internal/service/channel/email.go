package channel

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"

	"github.com/mrz1836/postmark"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// EmailClient 邮件供应商客户端，与 *postmark.Client 签名一致
type EmailClient interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// emailChannel 邮件渠道适配器
type emailChannel struct {
	client    EmailClient
	directory RecipientDirectory
	from      string
	timeout   time.Duration
}

// NewEmailChannel 创建邮件渠道适配器
func NewEmailChannel(client EmailClient, directory RecipientDirectory, from string, timeout time.Duration) Channel {
	return &emailChannel{
		client:    client,
		directory: directory,
		from:      from,
		timeout:   timeout,
	}
}

func (e *emailChannel) Name() domain.Channel {
	return domain.ChannelEmail
}

func (e *emailChannel) Send(ctx context.Context, notification domain.Notification) (domain.ChannelResult, error) {
	to, err := e.resolveRecipient(ctx, notification)
	if err != nil {
		// 参数问题直接失败，不发起传输调用
		return failedResult(e.Name(), err), nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.SendEmail(sendCtx, postmark.Email{
		From:     e.from,
		To:       to,
		Subject:  notification.Title,
		HTMLBody: notification.Message,
		TextBody: notification.Message,
	})
	if err != nil {
		return failedResult(e.Name(), fmt.Errorf("%w: %w", errs.ErrChannelSendFailed, err)), nil
	}
	if resp.ErrorCode > 0 {
		return failedResult(e.Name(),
			fmt.Errorf("%w: postmark error %d - %s", errs.ErrChannelSendFailed, resp.ErrorCode, resp.Message)), nil
	}

	return domain.ChannelResult{
		Channel:           e.Name(),
		Success:           true,
		ProviderMessageID: resp.MessageID,
		DeliveredAt:       time.Now(),
	}, nil
}

// resolveRecipient 优先使用请求上的覆盖邮箱，否则查用户资料
func (e *emailChannel) resolveRecipient(ctx context.Context, notification domain.Notification) (string, error) {
	to := strings.TrimSpace(notification.RecipientEmail)
	if to == "" {
		var err error
		to, err = e.directory.Email(ctx, notification.UserID)
		if err != nil {
			return "", fmt.Errorf("%w: 查询用户邮箱失败: %w", errs.ErrChannelSendFailed, err)
		}
	}
	if to == "" {
		return "", fmt.Errorf("%w: 收件邮箱为空", errs.ErrInvalidParameter)
	}
	if !emailRegexp.MatchString(to) {
		return "", fmt.Errorf("%w: 收件邮箱格式非法 %q", errs.ErrInvalidParameter, to)
	}
	return to, nil
}
