package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"

	"github.com/gofrs/uuid"
)

// 通知元数据中携带回调地址的键
const metadataCallbackURLKey = "callbackUrl"

// webhookEvent Webhook 投递的事件载荷
type webhookEvent struct {
	EventID        string            `json:"eventId"`
	NotificationID uint64            `json:"notificationId"`
	Type           string            `json:"type"`
	UserID         int64             `json:"userId"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Data           map[string]string `json:"data,omitempty"`
	Timestamp      int64             `json:"timestamp"`
}

// webhookChannel Webhook 渠道适配器
// 回调地址优先取通知元数据里的 callbackUrl，缺省用全局配置地址
type webhookChannel struct {
	client     *http.Client
	defaultURL string
	signKey    string
	timeout    time.Duration
}

// NewWebhookChannel 创建 Webhook 渠道适配器
func NewWebhookChannel(defaultURL, signKey string, timeout time.Duration) Channel {
	return &webhookChannel{
		client: &http.Client{
			Timeout: timeout,
		},
		defaultURL: defaultURL,
		signKey:    signKey,
		timeout:    timeout,
	}
}

func (w *webhookChannel) Name() domain.Channel {
	return domain.ChannelWebhook
}

func (w *webhookChannel) Send(ctx context.Context, notification domain.Notification) (domain.ChannelResult, error) {
	endpoint, err := w.resolveEndpoint(notification)
	if err != nil {
		return failedResult(w.Name(), err), nil
	}

	eventID, err := uuid.NewV4()
	if err != nil {
		return domain.ChannelResult{}, fmt.Errorf("%w: 生成事件ID失败: %w", errs.ErrChannelSendFailed, err)
	}

	payload, err := json.Marshal(webhookEvent{
		EventID:        eventID.String(),
		NotificationID: notification.ID,
		Type:           string(notification.Type),
		UserID:         notification.UserID,
		Title:          notification.Title,
		Message:        notification.Message,
		Data:           notification.Data,
		Timestamp:      time.Now().UnixMilli(),
	})
	if err != nil {
		return domain.ChannelResult{}, fmt.Errorf("%w: 序列化事件失败: %w", errs.ErrChannelSendFailed, err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return failedResult(w.Name(), fmt.Errorf("%w: %w", errs.ErrChannelSendFailed, err)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Id", eventID.String())
	if w.signKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.signKey)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return failedResult(w.Name(), fmt.Errorf("%w: %w", errs.ErrChannelSendFailed, err)), nil
	}
	defer func() { _ = resp.Body.Close() }()
	// 读净响应体，让连接可以复用
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return failedResult(w.Name(),
			fmt.Errorf("%w: 回调返回 HTTP %d", errs.ErrChannelSendFailed, resp.StatusCode)), nil
	}

	return domain.ChannelResult{
		Channel:           w.Name(),
		Success:           true,
		ProviderMessageID: eventID.String(),
		DeliveredAt:       time.Now(),
	}, nil
}

func (w *webhookChannel) resolveEndpoint(notification domain.Notification) (string, error) {
	endpoint := strings.TrimSpace(notification.Metadata[metadataCallbackURLKey])
	if endpoint == "" {
		endpoint = w.defaultURL
	}
	if endpoint == "" {
		return "", fmt.Errorf("%w: 未配置回调地址", errs.ErrInvalidParameter)
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: 回调地址非法 %q", errs.ErrInvalidParameter, endpoint)
	}
	return endpoint, nil
}
