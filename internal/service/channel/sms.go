package channel

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"
	"gitee.com/flycash/rental-notification/internal/pkg/retry"
	"gitee.com/flycash/rental-notification/internal/service/provider/sms/client"
)

var phoneRegexp = regexp.MustCompile(`^\+?[0-9]{5,20}$`)

// smsChannel 短信渠道适配器
type smsChannel struct {
	client     client.Client
	directory  RecipientDirectory
	signName   string
	templateID string
	timeout    time.Duration
	retry      retry.Strategy
}

// NewSMSChannel 创建短信渠道适配器
// retryStrategy 针对供应商瞬时失败做渠道内重试，可为 nil
func NewSMSChannel(
	c client.Client,
	directory RecipientDirectory,
	signName, templateID string,
	timeout time.Duration,
	retryStrategy retry.Strategy,
) Channel {
	return &smsChannel{
		client:     c,
		directory:  directory,
		signName:   signName,
		templateID: templateID,
		timeout:    timeout,
		retry:      retryStrategy,
	}
}

func (s *smsChannel) Name() domain.Channel {
	return domain.ChannelSMS
}

func (s *smsChannel) Send(ctx context.Context, notification domain.Notification) (domain.ChannelResult, error) {
	phone, err := s.resolveRecipient(ctx, notification)
	if err != nil {
		return failedResult(s.Name(), err), nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := client.SendReq{
		PhoneNumbers: []string{phone},
		SignName:     s.signName,
		TemplateID:   s.templateID,
		TemplateParam: map[string]string{
			"content": notification.Message,
		},
	}

	var resp client.SendResp
	var lastErr error
	var retried int32
	for {
		resp, lastErr = s.client.Send(req)
		if lastErr == nil {
			break
		}
		if s.retry == nil {
			break
		}
		interval, ok := s.retry.Next(retried)
		if !ok {
			break
		}
		retried++
		select {
		case <-sendCtx.Done():
			return failedResult(s.Name(), fmt.Errorf("%w: %w", errs.ErrChannelSendFailed, sendCtx.Err())), nil
		case <-time.After(interval):
		}
	}
	if lastErr != nil {
		return failedResult(s.Name(), fmt.Errorf("%w: %w", errs.ErrChannelSendFailed, lastErr)), nil
	}

	return domain.ChannelResult{
		Channel:           s.Name(),
		Success:           true,
		ProviderMessageID: resp.RequestID,
		DeliveredAt:       time.Now(),
	}, nil
}

func (s *smsChannel) resolveRecipient(ctx context.Context, notification domain.Notification) (string, error) {
	phone := strings.TrimSpace(notification.RecipientPhone)
	if phone == "" {
		var err error
		phone, err = s.directory.Phone(ctx, notification.UserID)
		if err != nil {
			return "", fmt.Errorf("%w: 查询用户手机号失败: %w", errs.ErrChannelSendFailed, err)
		}
	}
	if phone == "" {
		return "", fmt.Errorf("%w: 收件手机号为空", errs.ErrInvalidParameter)
	}
	if !phoneRegexp.MatchString(phone) {
		return "", fmt.Errorf("%w: 收件手机号格式非法 %q", errs.ErrInvalidParameter, phone)
	}
	return phone, nil
}
