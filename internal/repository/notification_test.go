package repository

import (
	"context"
	"encoding/json"
	"testing"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/repository/dao"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotificationDAO 返回预置统计数据的DAO桩
type fakeNotificationDAO struct {
	stats dao.Statistics
}

func (f *fakeNotificationDAO) Create(_ context.Context, data dao.Notification) (dao.Notification, error) {
	return data, nil
}

func (f *fakeNotificationDAO) GetByID(_ context.Context, _ uint64) (dao.Notification, error) {
	return dao.Notification{}, nil
}

func (f *fakeNotificationDAO) BatchGetByIDs(_ context.Context, _ []uint64) (map[uint64]dao.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationDAO) GetByUserID(_ context.Context, _ int64, _ int) ([]dao.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationDAO) UpdateDispatchResult(_ context.Context, _ dao.Notification) error {
	return nil
}

func (f *fakeNotificationDAO) CASStatus(_ context.Context, _ uint64, _, _ string) error {
	return nil
}

func (f *fakeNotificationDAO) GetStatistics(_ context.Context, _ int64) (dao.Statistics, error) {
	return f.stats, nil
}

func marshalResults(t *testing.T, results map[domain.Channel]domain.ChannelResult) string {
	t.Helper()
	raw, err := json.Marshal(results)
	require.NoError(t, err)
	return string(raw)
}

func TestNotificationRepository_GetStatistics(t *testing.T) {
	t.Parallel()

	// 两条通知：一条邮件+短信，一条仅邮件（短信失败也计入尝试）
	first := marshalResults(t, map[domain.Channel]domain.ChannelResult{
		domain.ChannelEmail: {Channel: domain.ChannelEmail, Success: true},
		domain.ChannelSMS:   {Channel: domain.ChannelSMS, Success: false, Error: "限流"},
	})
	second := marshalResults(t, map[domain.Channel]domain.ChannelResult{
		domain.ChannelEmail: {Channel: domain.ChannelEmail, Success: true},
	})

	repo := NewNotificationRepository(&fakeNotificationDAO{
		stats: dao.Statistics{
			StatusCounts: []dao.StatusCount{
				{Status: "DELIVERED", Cnt: 1},
				{Status: "PARTIALLY_DELIVERED", Cnt: 1},
			},
			TypeCounts: []dao.TypeCount{
				{Type: "BOOKING_CONFIRMED", Cnt: 2},
			},
			ChannelResults: []string{first, second, "not-json"},
		},
	})

	stats, err := repo.GetStatistics(t.Context(), 0)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[domain.SendStatusDelivered])
	assert.Equal(t, int64(1), stats.ByStatus[domain.SendStatusPartialDelivered])
	assert.Equal(t, int64(2), stats.ByType[domain.TypeBookingConfirmed])
	// 渠道维度按尝试计数，脏数据行跳过
	assert.Equal(t, int64(2), stats.ByChannel[domain.ChannelEmail])
	assert.Equal(t, int64(1), stats.ByChannel[domain.ChannelSMS])
}
