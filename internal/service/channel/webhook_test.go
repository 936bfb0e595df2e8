package channel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookChannel_Send(t *testing.T) {
	t.Parallel()

	notification := domain.Notification{
		ID:      1,
		Type:    domain.TypeBookingConfirmed,
		UserID:  100,
		Title:   "预订确认",
		Message: "您的预订已确认",
		Data:    map[string]string{"orderID": "order-1"},
	}

	t.Run("投递成功并带事件ID", func(t *testing.T) {
		t.Parallel()
		var mu sync.Mutex
		var received webhookEvent
		var eventIDHeader string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			eventIDHeader = r.Header.Get("X-Event-Id")
			_ = json.NewDecoder(r.Body).Decode(&received)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ch := NewWebhookChannel(server.URL, "secret", time.Second)
		result, err := ch.Send(t.Context(), notification)
		require.NoError(t, err)
		assert.True(t, result.Success)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, result.ProviderMessageID, eventIDHeader)
		assert.Equal(t, result.ProviderMessageID, received.EventID)
		assert.Equal(t, uint64(1), received.NotificationID)
		assert.Equal(t, "BOOKING_CONFIRMED", received.Type)
		assert.Equal(t, "order-1", received.Data["orderID"])
	})

	t.Run("元数据回调地址优先于默认地址", func(t *testing.T) {
		t.Parallel()
		var hit bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hit = true
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		ch := NewWebhookChannel("http://unused.invalid", "", time.Second)
		n := notification
		n.Metadata = map[string]string{"callbackUrl": server.URL}
		result, err := ch.Send(t.Context(), n)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.True(t, hit)
	})

	t.Run("非2xx响应折叠为失败", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		ch := NewWebhookChannel(server.URL, "", time.Second)
		result, err := ch.Send(t.Context(), notification)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "500")
	})

	t.Run("未配置回调地址时失败", func(t *testing.T) {
		t.Parallel()
		ch := NewWebhookChannel("", "", time.Second)
		result, err := ch.Send(t.Context(), notification)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, errs.ErrInvalidParameter.Error())
	})

	t.Run("回调地址非法时失败", func(t *testing.T) {
		t.Parallel()
		ch := NewWebhookChannel("ftp://example.com/hook", "", time.Second)
		result, err := ch.Send(t.Context(), notification)
		require.NoError(t, err)
		assert.False(t, result.Success)
	})
}
