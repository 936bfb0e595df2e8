package metrics

import (
	"context"
	"testing"

	"gitee.com/flycash/rental-notification/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannel 固定结果的渠道桩
type fakeChannel struct {
	name    domain.Channel
	success bool
	calls   int
}

func (f *fakeChannel) Name() domain.Channel {
	return f.name
}

func (f *fakeChannel) Send(_ context.Context, _ domain.Notification) (domain.ChannelResult, error) {
	f.calls++
	return domain.ChannelResult{
		Channel: f.name,
		Success: f.success,
	}, nil
}

func TestChannel_Decorate(t *testing.T) {
	t.Parallel()

	notification := domain.Notification{
		ID:      1,
		Type:    domain.TypeBookingConfirmed,
		UserID:  100,
		Title:   "预订确认",
		Message: "您的预订已确认",
	}

	t.Run("装饰多个渠道不会重复注册指标", func(t *testing.T) {
		t.Parallel()
		email := &fakeChannel{name: domain.ChannelEmail, success: true}
		sms := &fakeChannel{name: domain.ChannelSMS, success: false}

		var emailDecorated, smsDecorated *Channel
		require.NotPanics(t, func() {
			emailDecorated = NewChannel(email)
			smsDecorated = NewChannel(sms)
		})

		result, err := emailDecorated.Send(t.Context(), notification)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 1, email.calls)

		result, err = smsDecorated.Send(t.Context(), notification)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 1, sms.calls)
	})

	t.Run("装饰器透传渠道标识", func(t *testing.T) {
		t.Parallel()
		ch := NewChannel(&fakeChannel{name: domain.ChannelPush})
		assert.Equal(t, domain.ChannelPush, ch.Name())
	})
}
