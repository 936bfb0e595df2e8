package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"
	evt "gitee.com/flycash/rental-notification/internal/event/notification"
	"gitee.com/flycash/rental-notification/internal/service/channel"

	"github.com/sony/sonyflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotificationRepo 内存通知仓储
type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications map[uint64]domain.Notification
	updateCount   int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		notifications: make(map[uint64]domain.Notification),
	}
}

func (f *fakeNotificationRepo) Create(_ context.Context, n domain.Notification) (domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notifications[n.ID]; ok {
		return domain.Notification{}, fmt.Errorf("%w: id=%d", errs.ErrNotificationDuplicate, n.ID)
	}
	f.notifications[n.ID] = n
	return n, nil
}

func (f *fakeNotificationRepo) GetByID(_ context.Context, id uint64) (domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[id]
	if !ok {
		return domain.Notification{}, fmt.Errorf("%w: id=%d", errs.ErrNotificationNotFound, id)
	}
	return n, nil
}

func (f *fakeNotificationRepo) BatchGetByIDs(_ context.Context, ids []uint64) (map[uint64]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make(map[uint64]domain.Notification, len(ids))
	for _, id := range ids {
		if n, ok := f.notifications[id]; ok {
			result[id] = n
		}
	}
	return result, nil
}

func (f *fakeNotificationRepo) UpdateDispatchResult(_ context.Context, n domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications[n.ID] = n
	f.updateCount++
	return nil
}

func (f *fakeNotificationRepo) CASStatus(_ context.Context, id uint64, from, to domain.SendStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[id]
	if !ok || n.Status != from {
		return fmt.Errorf("%w: id=%d", errs.ErrNotificationNotFound, id)
	}
	n.Status = to
	f.notifications[id] = n
	return nil
}

func (f *fakeNotificationRepo) GetStatistics(_ context.Context, _ int64) (domain.DeliveryStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := domain.DeliveryStatistics{
		ByStatus:  make(map[domain.SendStatus]int64),
		ByType:    make(map[domain.NotificationType]int64),
		ByChannel: make(map[domain.Channel]int64),
	}
	for _, n := range f.notifications {
		stats.Total++
		stats.ByStatus[n.Status]++
		stats.ByType[n.Type]++
	}
	return stats, nil
}

// fixedResolver 固定返回指定渠道
type fixedResolver struct {
	channels []domain.Channel
	err      error
}

func (f *fixedResolver) ResolveChannels(_ context.Context, n domain.Notification) ([]domain.Channel, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(n.Channels) > 0 {
		return n.Channels, nil
	}
	return f.channels, nil
}

// fakeChannel 可编程渠道适配器
type fakeChannel struct {
	mu       sync.Mutex
	name     domain.Channel
	succeed  bool
	delay    time.Duration
	sendKeys []uint64
}

func (f *fakeChannel) Name() domain.Channel {
	return f.name
}

func (f *fakeChannel) Send(_ context.Context, n domain.Notification) (domain.ChannelResult, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.sendKeys = append(f.sendKeys, n.ID)
	f.mu.Unlock()
	if !f.succeed {
		return domain.ChannelResult{
			Channel: f.name,
			Success: false,
			Error:   "供应商不可用",
		}, nil
	}
	return domain.ChannelResult{
		Channel:           f.name,
		Success:           true,
		ProviderMessageID: "msg-1",
		DeliveredAt:       time.Now(),
	}, nil
}

func (f *fakeChannel) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sendKeys)
}

// recordingProducer 记录收到的生命周期事件
type recordingProducer struct {
	mu     sync.Mutex
	events []evt.Event
}

func (r *recordingProducer) Produce(_ context.Context, e evt.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// passthroughTemplateSvc 不做任何渲染的模板服务桩
type passthroughTemplateSvc struct{}

func (p *passthroughTemplateSvc) GetByName(_ context.Context, name string) (domain.Template, error) {
	return domain.Template{}, fmt.Errorf("%w: %s", errs.ErrTemplateNotFound, name)
}

func (p *passthroughTemplateSvc) Render(_ context.Context, name string, _ map[string]string) (domain.RenderedTemplate, error) {
	return domain.RenderedTemplate{}, fmt.Errorf("%w: %s", errs.ErrTemplateNotFound, name)
}

func (p *passthroughTemplateSvc) Upsert(_ context.Context, _ domain.Template) error {
	return nil
}

func (p *passthroughTemplateSvc) SeedDefaults(_ context.Context) error {
	return nil
}

// fixedTemplateSvc 返回固定渲染结果的模板服务桩
type fixedTemplateSvc struct {
	rendered domain.RenderedTemplate
}

func (f *fixedTemplateSvc) GetByName(_ context.Context, _ string) (domain.Template, error) {
	return domain.Template{}, nil
}

func (f *fixedTemplateSvc) Render(_ context.Context, _ string, _ map[string]string) (domain.RenderedTemplate, error) {
	return f.rendered, nil
}

func (f *fixedTemplateSvc) Upsert(_ context.Context, _ domain.Template) error {
	return nil
}

func (f *fixedTemplateSvc) SeedDefaults(_ context.Context) error {
	return nil
}

func newTestIDGenerator() *sonyflake.Sonyflake {
	return sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		MachineID: func() (uint16, error) {
			return 1, nil
		},
	})
}

func validNotification() domain.Notification {
	return domain.Notification{
		Type:    domain.TypeBookingConfirmed,
		UserID:  100,
		Title:   "预订确认",
		Message: "您的预订已确认",
	}
}

func TestDispatcher_Send(t *testing.T) {
	t.Parallel()

	t.Run("参数非法时不触碰任何渠道", func(t *testing.T) {
		t.Parallel()
		repo := newFakeNotificationRepo()
		emailCh := &fakeChannel{name: domain.ChannelEmail, succeed: true}
		d := NewDispatcher(repo, channel.NewRegistry(emailCh),
			&fixedResolver{channels: []domain.Channel{domain.ChannelEmail}},
			&passthroughTemplateSvc{}, newTestIDGenerator(), &recordingProducer{})

		n := validNotification()
		n.Title = ""
		_, err := d.Send(t.Context(), n)
		assert.ErrorIs(t, err, errs.ErrInvalidParameter)
		assert.Zero(t, emailCh.sendCount())
		assert.Empty(t, repo.notifications)
	})

	t.Run("过期通知直接拒绝", func(t *testing.T) {
		t.Parallel()
		repo := newFakeNotificationRepo()
		emailCh := &fakeChannel{name: domain.ChannelEmail, succeed: true}
		d := NewDispatcher(repo, channel.NewRegistry(emailCh),
			&fixedResolver{channels: []domain.Channel{domain.ChannelEmail}},
			&passthroughTemplateSvc{}, newTestIDGenerator(), &recordingProducer{})

		n := validNotification()
		n.ExpiresAt = time.Now().Add(-time.Minute)
		_, err := d.Send(t.Context(), n)
		assert.ErrorIs(t, err, errs.ErrNotificationExpired)
		assert.Zero(t, emailCh.sendCount())
	})

	t.Run("全部渠道成功时状态为DELIVERED", func(t *testing.T) {
		t.Parallel()
		repo := newFakeNotificationRepo()
		emailCh := &fakeChannel{name: domain.ChannelEmail, succeed: true}
		inAppCh := &fakeChannel{name: domain.ChannelInApp, succeed: true}
		producer := &recordingProducer{}
		d := NewDispatcher(repo, channel.NewRegistry(emailCh, inAppCh),
			&fixedResolver{channels: []domain.Channel{domain.ChannelEmail, domain.ChannelInApp}},
			&passthroughTemplateSvc{}, newTestIDGenerator(), producer)

		resp, err := d.Send(t.Context(), validNotification())
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, domain.SendStatusDelivered, resp.Status)
		assert.Len(t, resp.Results, 2)
		assert.Empty(t, resp.Errs)

		stored, err := d.GetByID(t.Context(), resp.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, domain.SendStatusDelivered, stored.Status)
		assert.False(t, stored.DeliveredAt.IsZero())
		assert.Len(t, producer.events, 1)
	})

	t.Run("部分渠道失败时状态为PARTIALLY_DELIVERED", func(t *testing.T) {
		t.Parallel()
		repo := newFakeNotificationRepo()
		emailCh := &fakeChannel{name: domain.ChannelEmail, succeed: true}
		smsCh := &fakeChannel{name: domain.ChannelSMS, succeed: false}
		d := NewDispatcher(repo, channel.NewRegistry(emailCh, smsCh),
			&fixedResolver{channels: []domain.Channel{domain.ChannelEmail, domain.ChannelSMS}},
			&passthroughTemplateSvc{}, newTestIDGenerator(), &recordingProducer{})

		resp, err := d.Send(t.Context(), validNotification())
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, domain.SendStatusPartialDelivered, resp.Status)
		assert.Len(t, resp.Results, 2)
		assert.True(t, resp.Results[domain.ChannelEmail].Success)
		assert.False(t, resp.Results[domain.ChannelSMS].Success)
		require.Len(t, resp.Errs, 1)
		assert.ErrorIs(t, resp.Errs[0], errs.ErrChannelSendFailed)
	})

	t.Run("全部渠道失败时状态为FAILED", func(t *testing.T) {
		t.Parallel()
		repo := newFakeNotificationRepo()
		emailCh := &fakeChannel{name: domain.ChannelEmail, succeed: false}
		d := NewDispatcher(repo, channel.NewRegistry(emailCh),
			&fixedResolver{channels: []domain.Channel{domain.ChannelEmail}},
			&passthroughTemplateSvc{}, newTestIDGenerator(), &recordingProducer{})

		resp, err := d.Send(t.Context(), validNotification())
		require.NoError(t, err)
		assert.Equal(t, domain.SendStatusFailed, resp.Status)
		found := false
		for _, e := range resp.Errs {
			if errors.Is(e, errs.ErrAllChannelsFailed) {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("未注册渠道折叠为该渠道失败", func(t *testing.T) {
		t.Parallel()
		repo := newFakeNotificationRepo()
		emailCh := &fakeChannel{name: domain.ChannelEmail, succeed: true}
		d := NewDispatcher(repo, channel.NewRegistry(emailCh),
			&fixedResolver{channels: []domain.Channel{domain.ChannelEmail, domain.ChannelWebhook}},
			&passthroughTemplateSvc{}, newTestIDGenerator(), &recordingProducer{})

		resp, err := d.Send(t.Context(), validNotification())
		require.NoError(t, err)
		assert.Equal(t, domain.SendStatusPartialDelivered, resp.Status)
		assert.False(t, resp.Results[domain.ChannelWebhook].Success)
	})

	t.Run("模板默认优先级与默认渠道生效", func(t *testing.T) {
		t.Parallel()
		repo := newFakeNotificationRepo()
		emailCh := &fakeChannel{name: domain.ChannelEmail, succeed: true}
		smsCh := &fakeChannel{name: domain.ChannelSMS, succeed: true}
		pushCh := &fakeChannel{name: domain.ChannelPush, succeed: true}
		templateSvc := &fixedTemplateSvc{
			rendered: domain.RenderedTemplate{
				Title:           "安全告警",
				Body:            "检测到异地登录",
				DefaultChannels: []domain.Channel{domain.ChannelSMS, domain.ChannelPush},
				DefaultPriority: domain.PriorityUrgent,
			},
		}
		d := NewDispatcher(repo, channel.NewRegistry(emailCh, smsCh, pushCh),
			&fixedResolver{channels: []domain.Channel{domain.ChannelEmail}},
			templateSvc, newTestIDGenerator(), &recordingProducer{})

		resp, err := d.Send(t.Context(), domain.Notification{
			Type:         domain.TypeSecurityAlert,
			UserID:       100,
			TemplateName: "security_alert",
		})
		require.NoError(t, err)
		assert.True(t, resp.Success)

		stored, err := d.GetByID(t.Context(), resp.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, domain.PriorityUrgent, stored.Priority)
		assert.Equal(t, 1, smsCh.sendCount())
		assert.Equal(t, 1, pushCh.sendCount())
		assert.Zero(t, emailCh.sendCount())
	})

	t.Run("请求显式指定的优先级不被模板默认值覆盖", func(t *testing.T) {
		t.Parallel()
		repo := newFakeNotificationRepo()
		emailCh := &fakeChannel{name: domain.ChannelEmail, succeed: true}
		templateSvc := &fixedTemplateSvc{
			rendered: domain.RenderedTemplate{
				Title:           "安全告警",
				Body:            "检测到异地登录",
				DefaultPriority: domain.PriorityUrgent,
			},
		}
		d := NewDispatcher(repo, channel.NewRegistry(emailCh),
			&fixedResolver{channels: []domain.Channel{domain.ChannelEmail}},
			templateSvc, newTestIDGenerator(), &recordingProducer{})

		resp, err := d.Send(t.Context(), domain.Notification{
			Type:         domain.TypeSecurityAlert,
			UserID:       100,
			Priority:     domain.PriorityLow,
			TemplateName: "security_alert",
		})
		require.NoError(t, err)

		stored, err := d.GetByID(t.Context(), resp.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, domain.PriorityLow, stored.Priority)
	})

	t.Run("渠道并发扇出而不是顺序发送", func(t *testing.T) {
		t.Parallel()
		repo := newFakeNotificationRepo()
		const delay = 100 * time.Millisecond
		emailCh := &fakeChannel{name: domain.ChannelEmail, succeed: true, delay: delay}
		smsCh := &fakeChannel{name: domain.ChannelSMS, succeed: true, delay: delay}
		pushCh := &fakeChannel{name: domain.ChannelPush, succeed: true, delay: delay}
		d := NewDispatcher(repo, channel.NewRegistry(emailCh, smsCh, pushCh),
			&fixedResolver{channels: []domain.Channel{
				domain.ChannelEmail, domain.ChannelSMS, domain.ChannelPush,
			}},
			&passthroughTemplateSvc{}, newTestIDGenerator(), &recordingProducer{})

		start := time.Now()
		resp, err := d.Send(t.Context(), validNotification())
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.True(t, resp.Success)
		// 三个渠道各睡 100ms，串行要 300ms 以上
		assert.Less(t, elapsed, 2*delay)
	})
}

func TestDispatcher_BatchSend(t *testing.T) {
	t.Parallel()

	t.Run("空列表被拒绝", func(t *testing.T) {
		t.Parallel()
		d := NewDispatcher(newFakeNotificationRepo(), channel.NewRegistry(),
			&fixedResolver{}, &passthroughTemplateSvc{}, newTestIDGenerator(), &recordingProducer{})
		_, err := d.BatchSend(t.Context(), nil)
		assert.ErrorIs(t, err, errs.ErrInvalidParameter)
	})

	t.Run("单条失败不影响其他条目", func(t *testing.T) {
		t.Parallel()
		repo := newFakeNotificationRepo()
		emailCh := &fakeChannel{name: domain.ChannelEmail, succeed: true}
		d := NewDispatcher(repo, channel.NewRegistry(emailCh),
			&fixedResolver{channels: []domain.Channel{domain.ChannelEmail}},
			&passthroughTemplateSvc{}, newTestIDGenerator(), &recordingProducer{})

		bad := validNotification()
		bad.UserID = 0
		resp, err := d.BatchSend(t.Context(), []domain.Notification{
			validNotification(), bad, validNotification(),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, resp.TotalCount)
		assert.Equal(t, 2, resp.SuccessCount)
		assert.False(t, resp.Success())
		assert.Equal(t, domain.SendStatusFailed, resp.Results[1].Status)
		require.Len(t, resp.Results[1].Errs, 1)
		assert.ErrorIs(t, resp.Results[1].Errs[0], errs.ErrInvalidParameter)
	})
}

func TestDispatcher_DispatchExisting(t *testing.T) {
	t.Parallel()

	t.Run("过期的已落库通知被标记为FAILED", func(t *testing.T) {
		t.Parallel()
		repo := newFakeNotificationRepo()
		emailCh := &fakeChannel{name: domain.ChannelEmail, succeed: true}
		d := NewDispatcher(repo, channel.NewRegistry(emailCh),
			&fixedResolver{channels: []domain.Channel{domain.ChannelEmail}},
			&passthroughTemplateSvc{}, newTestIDGenerator(), &recordingProducer{})

		n := validNotification()
		n.ID = 1
		n.Status = domain.SendStatusPending
		n.ExpiresAt = time.Now().Add(-time.Minute)
		_, err := repo.Create(t.Context(), n)
		require.NoError(t, err)

		_, err = d.DispatchExisting(t.Context(), n)
		assert.ErrorIs(t, err, errs.ErrNotificationExpired)
		assert.Zero(t, emailCh.sendCount())

		stored, err := repo.GetByID(t.Context(), 1)
		require.NoError(t, err)
		assert.Equal(t, domain.SendStatusFailed, stored.Status)
	})

	t.Run("终态通知不允许再次发送", func(t *testing.T) {
		t.Parallel()
		d := NewDispatcher(newFakeNotificationRepo(), channel.NewRegistry(),
			&fixedResolver{}, &passthroughTemplateSvc{}, newTestIDGenerator(), &recordingProducer{})

		n := validNotification()
		n.ID = 2
		n.Status = domain.SendStatusDelivered
		_, err := d.DispatchExisting(t.Context(), n)
		assert.ErrorIs(t, err, errs.ErrInvalidParameter)
	})
}
