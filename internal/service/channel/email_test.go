package channel

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"

	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmailClient 可编程邮件客户端
type fakeEmailClient struct {
	sent     []postmark.Email
	response postmark.EmailResponse
	err      error
}

func (f *fakeEmailClient) SendEmail(_ context.Context, email postmark.Email) (postmark.EmailResponse, error) {
	if f.err != nil {
		return postmark.EmailResponse{}, f.err
	}
	f.sent = append(f.sent, email)
	return f.response, nil
}

// fakeDirectory 内存收件人目录
type fakeDirectory struct {
	emails map[int64]string
	phones map[int64]string
	err    error
}

func (f *fakeDirectory) Email(_ context.Context, userID int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.emails[userID], nil
}

func (f *fakeDirectory) Phone(_ context.Context, userID int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.phones[userID], nil
}

func TestEmailChannel_Send(t *testing.T) {
	t.Parallel()

	notification := domain.Notification{
		ID:      1,
		Type:    domain.TypeBookingConfirmed,
		UserID:  100,
		Title:   "预订确认",
		Message: "您的预订已确认",
	}

	t.Run("覆盖邮箱优先于用户资料", func(t *testing.T) {
		t.Parallel()
		client := &fakeEmailClient{
			response: postmark.EmailResponse{MessageID: "pm-1"},
		}
		ch := NewEmailChannel(client, &fakeDirectory{
			emails: map[int64]string{100: "profile@example.com"},
		}, "noreply@rental.example.com", time.Second)

		n := notification
		n.RecipientEmail = "override@example.com"
		result, err := ch.Send(t.Context(), n)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "pm-1", result.ProviderMessageID)
		require.Len(t, client.sent, 1)
		assert.Equal(t, "override@example.com", client.sent[0].To)
	})

	t.Run("无覆盖时查用户资料", func(t *testing.T) {
		t.Parallel()
		client := &fakeEmailClient{
			response: postmark.EmailResponse{MessageID: "pm-2"},
		}
		ch := NewEmailChannel(client, &fakeDirectory{
			emails: map[int64]string{100: "profile@example.com"},
		}, "noreply@rental.example.com", time.Second)

		result, err := ch.Send(t.Context(), notification)
		require.NoError(t, err)
		assert.True(t, result.Success)
		require.Len(t, client.sent, 1)
		assert.Equal(t, "profile@example.com", client.sent[0].To)
	})

	t.Run("邮箱格式非法时不发起传输调用", func(t *testing.T) {
		t.Parallel()
		client := &fakeEmailClient{}
		ch := NewEmailChannel(client, &fakeDirectory{}, "noreply@rental.example.com", time.Second)

		n := notification
		n.RecipientEmail = "not-an-email"
		result, err := ch.Send(t.Context(), n)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, errs.ErrInvalidParameter.Error())
		assert.Empty(t, client.sent)
	})

	t.Run("供应商错误码折叠为失败结果", func(t *testing.T) {
		t.Parallel()
		client := &fakeEmailClient{
			response: postmark.EmailResponse{
				ErrorCode: 406,
				Message:   "Inactive recipient",
			},
		}
		ch := NewEmailChannel(client, &fakeDirectory{
			emails: map[int64]string{100: "profile@example.com"},
		}, "noreply@rental.example.com", time.Second)

		result, err := ch.Send(t.Context(), notification)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "Inactive recipient")
	})

	t.Run("传输错误折叠为失败结果", func(t *testing.T) {
		t.Parallel()
		client := &fakeEmailClient{err: errors.New("connection refused")}
		ch := NewEmailChannel(client, &fakeDirectory{
			emails: map[int64]string{100: "profile@example.com"},
		}, "noreply@rental.example.com", time.Second)

		result, err := ch.Send(t.Context(), notification)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, errs.ErrChannelSendFailed.Error())
	})

	t.Run("目录查询失败折叠为失败结果", func(t *testing.T) {
		t.Parallel()
		client := &fakeEmailClient{}
		ch := NewEmailChannel(client, &fakeDirectory{
			err: fmt.Errorf("%w: userID=100", errs.ErrUserContactNotFound),
		}, "noreply@rental.example.com", time.Second)

		result, err := ch.Send(t.Context(), notification)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Empty(t, client.sent)
	})
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	email := NewEmailChannel(&fakeEmailClient{}, &fakeDirectory{}, "noreply@rental.example.com", time.Second)
	registry := NewRegistry(email)

	got, err := registry.Get(domain.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelEmail, got.Name())

	_, err = registry.Get(domain.ChannelSMS)
	assert.ErrorIs(t, err, errs.ErrUnregisteredChannel)
}
