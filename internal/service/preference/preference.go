package preference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"
	"gitee.com/flycash/rental-notification/internal/repository"

	"github.com/gotomicro/ego/core/elog"
)

// typeDefaultChannels 各通知类型的默认渠道，用户未显式指定渠道时按此解析
var typeDefaultChannels = map[domain.NotificationType][]domain.Channel{
	domain.TypeBookingConfirmed:   {domain.ChannelEmail, domain.ChannelInApp},
	domain.TypeBookingCanceled:    {domain.ChannelEmail, domain.ChannelInApp},
	domain.TypePaymentReceived:    {domain.ChannelEmail, domain.ChannelInApp},
	domain.TypePaymentFailed:      {domain.ChannelEmail, domain.ChannelSMS, domain.ChannelInApp},
	domain.TypeRentalReminder:     {domain.ChannelEmail, domain.ChannelPush},
	domain.TypeSecurityAlert:      {domain.ChannelEmail, domain.ChannelSMS, domain.ChannelPush},
	domain.TypeMessageReceived:    {domain.ChannelPush, domain.ChannelInApp},
	domain.TypeSystemAnnouncement: {domain.ChannelInApp},
}

// Resolver 渠道解析器
// 综合显式指定的渠道、通知类型默认渠道和用户偏好，得出最终的发送渠道列表
//
//go:generate mockgen -source=./preference.go -destination=./mocks/preference.mock.go -package=preferencemocks -typed Resolver
type Resolver interface {
	// ResolveChannels 解析通知的最终发送渠道
	// 返回 ErrNoAvailableChannel 表示用户已关闭全部通知
	ResolveChannels(ctx context.Context, notification domain.Notification) ([]domain.Channel, error)
}

// resolver 渠道解析器实现
type resolver struct {
	repo   repository.PreferenceRepository
	nowFn  func() time.Time
	logger *elog.Component
}

// NewResolver 创建渠道解析器实例
func NewResolver(repo repository.PreferenceRepository) Resolver {
	return newResolver(repo, time.Now)
}

func newResolver(repo repository.PreferenceRepository, nowFn func() time.Time) Resolver {
	return &resolver{
		repo:   repo,
		nowFn:  nowFn,
		logger: elog.DefaultLogger,
	}
}

func (r *resolver) ResolveChannels(ctx context.Context, notification domain.Notification) ([]domain.Channel, error) {
	// 显式指定渠道时照单发送，调用方的意图优先于用户偏好
	if len(notification.Channels) > 0 {
		return notification.Channels, nil
	}

	pref, err := r.repo.GetByUserID(ctx, notification.UserID)
	if err != nil {
		if !errors.Is(err, errs.ErrPreferenceNotFound) {
			return nil, fmt.Errorf("查询用户偏好失败: %w", err)
		}
		// 用户从未配置过偏好，按全开处理
		pref = domain.UserPreference{
			UserID:  notification.UserID,
			Enabled: true,
		}
	}

	if !pref.Enabled {
		return nil, fmt.Errorf("%w: 用户已关闭全部通知", errs.ErrNoAvailableChannel)
	}

	candidates := typeDefaultChannels[notification.Type]
	channels := make([]domain.Channel, 0, len(candidates))
	for _, ch := range candidates {
		if pref.ChannelAllowed(ch) {
			channels = append(channels, ch)
		}
	}

	// 免打扰窗口内压制打扰型渠道，紧急通知除外
	if notification.Priority != domain.PriorityUrgent && pref.InQuietHours(r.nowFn()) {
		channels = r.suppressDisruptive(notification, channels)
	}

	// 全部渠道被过滤时退回邮件兜底，保证通知不被静默吞掉
	if len(channels) == 0 {
		if !pref.ChannelAllowed(domain.ChannelEmail) {
			return nil, fmt.Errorf("%w: 用户偏好过滤后无可用渠道", errs.ErrNoAvailableChannel)
		}
		channels = []domain.Channel{domain.ChannelEmail}
	}

	return channels, nil
}

func (r *resolver) suppressDisruptive(notification domain.Notification, channels []domain.Channel) []domain.Channel {
	kept := make([]domain.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch == domain.ChannelSMS || ch == domain.ChannelPush {
			r.logger.Info("免打扰窗口内压制渠道",
				elog.Int64("userID", notification.UserID),
				elog.String("channel", string(ch)))
			continue
		}
		kept = append(kept, ch)
	}
	return kept
}
