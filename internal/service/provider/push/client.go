package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrInvalidToken 供应商明确告知令牌已永久失效
var ErrInvalidToken = errors.New("设备令牌已失效")

// Message 推送消息体
type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Client 推送供应商客户端
type Client interface {
	// Send 向单个设备令牌推送，返回供应商侧消息ID
	// 令牌永久失效时返回 ErrInvalidToken，调用方据此清理令牌
	Send(ctx context.Context, token string, msg Message) (string, error)
}

// HTTPClient 基于 HTTP 协议的推送供应商实现（FCM 风格）
type HTTPClient struct {
	endpoint  string
	serverKey string
	client    *http.Client
}

// NewHTTPClient 创建 HTTP 推送客户端
func NewHTTPClient(endpoint, serverKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint:  endpoint,
		serverKey: serverKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type sendRequest struct {
	To           string  `json:"to"`
	Notification Message `json:"notification"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

func (c *HTTPClient) Send(ctx context.Context, token string, msg Message) (string, error) {
	body, err := json.Marshal(sendRequest{
		To:           token,
		Notification: msg,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	// 404/410 表示令牌已不存在于供应商侧
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return "", ErrInvalidToken
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var result sendResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("解析推送响应失败: %w", err)
	}

	switch result.Error {
	case "":
	case "NotRegistered", "InvalidRegistration":
		return "", ErrInvalidToken
	default:
		return "", fmt.Errorf("推送失败: %s", result.Error)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("推送失败: HTTP %d", resp.StatusCode)
	}
	return result.MessageID, nil
}
