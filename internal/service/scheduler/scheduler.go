package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"
	"gitee.com/flycash/rental-notification/internal/pkg/idempotent"
	"gitee.com/flycash/rental-notification/internal/pkg/loopjob"
	"gitee.com/flycash/rental-notification/internal/repository"
	"gitee.com/flycash/rental-notification/internal/service/dispatcher"

	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
	"github.com/sony/sonyflake"
)

const (
	defaultSweepBatchSize = 100
	lockKey               = "rental_notification_scheduler"
)

// Scheduler 定时通知调度器
// 写入时只落库不发送，后台循环扫描到期条目并交给编排器发送，
// 保证至少一次触发，重复触发由幂等标记拦截
//
//go:generate mockgen -source=./scheduler.go -destination=./mocks/scheduler.mock.go -package=schedulermocks -typed Scheduler
type Scheduler interface {
	// Schedule 登记一条定时通知，dueAt 到期后由后台扫描触发发送
	Schedule(ctx context.Context, notification domain.Notification, dueAt time.Time) (domain.ScheduledEntry, error)

	// GetDueNotifications 查询当前已到期待发送的通知
	GetDueNotifications(ctx context.Context, limit int) ([]domain.Notification, error)

	// ProcessScheduledNotifications 执行一轮到期扫描，逐条认领并发送
	ProcessScheduledNotifications(ctx context.Context) error

	// Start 抢占分布式锁后持续扫描，ctx 取消时退出
	Start(ctx context.Context)
}

// scheduler 定时通知调度器实现
type scheduler struct {
	notificationRepo repository.NotificationRepository
	entryRepo        repository.ScheduledEntryRepository
	dispatcher       dispatcher.Dispatcher
	idGenerator      *sonyflake.Sonyflake
	idempotencySvc   idempotent.IdempotencyService
	dclient          dlock.Client
	batchSize        int
	sweepInterval    time.Duration
	logger           *elog.Component
}

// NewScheduler 创建定时通知调度器
func NewScheduler(
	notificationRepo repository.NotificationRepository,
	entryRepo repository.ScheduledEntryRepository,
	disp dispatcher.Dispatcher,
	idGenerator *sonyflake.Sonyflake,
	idempotencySvc idempotent.IdempotencyService,
	dclient dlock.Client,
	sweepInterval time.Duration,
) Scheduler {
	return &scheduler{
		notificationRepo: notificationRepo,
		entryRepo:        entryRepo,
		dispatcher:       disp,
		idGenerator:      idGenerator,
		idempotencySvc:   idempotencySvc,
		dclient:          dclient,
		batchSize:        defaultSweepBatchSize,
		sweepInterval:    sweepInterval,
		logger:           elog.DefaultLogger,
	}
}

func (s *scheduler) Schedule(ctx context.Context, notification domain.Notification, dueAt time.Time) (domain.ScheduledEntry, error) {
	if err := notification.Validate(); err != nil {
		return domain.ScheduledEntry{}, err
	}
	if dueAt.IsZero() {
		return domain.ScheduledEntry{}, fmt.Errorf("%w: 触发时间不能为空", errs.ErrInvalidParameter)
	}
	if !notification.ExpiresAt.IsZero() && !dueAt.Before(notification.ExpiresAt) {
		return domain.ScheduledEntry{}, fmt.Errorf("%w: 触发时间晚于过期时间", errs.ErrInvalidParameter)
	}

	if notification.ID == 0 {
		id, err := s.idGenerator.NextID()
		if err != nil {
			return domain.ScheduledEntry{}, fmt.Errorf("%w: %w", errs.ErrNotificationIDGenerateFailed, err)
		}
		notification.ID = id
	}
	notification.Status = domain.SendStatusScheduled
	notification.ScheduledAt = dueAt

	created, err := s.notificationRepo.Create(ctx, notification)
	if err != nil {
		return domain.ScheduledEntry{}, fmt.Errorf("%w: %w", errs.ErrScheduleFailed, err)
	}

	entry, err := s.entryRepo.Create(ctx, domain.ScheduledEntry{
		NotificationID: created.ID,
		DueAt:          dueAt,
		Status:         domain.ScheduleStatusPending,
	})
	if err != nil {
		return domain.ScheduledEntry{}, fmt.Errorf("%w: %w", errs.ErrScheduleFailed, err)
	}
	return entry, nil
}

func (s *scheduler) GetDueNotifications(ctx context.Context, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = s.batchSize
	}
	entries, err := s.entryRepo.FindDue(ctx, time.Now(), limit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]uint64, 0, len(entries))
	for i := range entries {
		ids = append(ids, entries[i].NotificationID)
	}
	notificationMap, err := s.notificationRepo.BatchGetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	notifications := make([]domain.Notification, 0, len(ids))
	for _, id := range ids {
		if n, ok := notificationMap[id]; ok {
			notifications = append(notifications, n)
		}
	}
	return notifications, nil
}

// ProcessScheduledNotifications 单轮扫描
// 条目逐个认领，认领失败说明别的实例已经接手，跳过即可，
// 单条处理失败只标记该条目，不中断整轮扫描
func (s *scheduler) ProcessScheduledNotifications(ctx context.Context) error {
	entries, err := s.entryRepo.FindDue(ctx, time.Now(), s.batchSize)
	if err != nil {
		return fmt.Errorf("扫描到期条目失败: %w", err)
	}

	for i := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.processEntry(ctx, entries[i])
	}
	return nil
}

func (s *scheduler) processEntry(ctx context.Context, entry domain.ScheduledEntry) {
	err := s.entryRepo.Claim(ctx, entry.ID)
	if err != nil {
		if !errors.Is(err, errs.ErrScheduledEntryClaimed) {
			s.logger.Error("认领到期条目失败",
				elog.Any("entryID", entry.ID),
				elog.FieldErr(err))
		}
		return
	}

	// 乐观认领之外再加一道幂等标记，防止认领后进程崩溃重启导致重复发送
	exists, err := s.idempotencySvc.Exists(ctx, s.idempotencyKey(entry))
	if err != nil {
		s.logger.Warn("幂等检查失败，继续发送",
			elog.Any("entryID", entry.ID),
			elog.FieldErr(err))
	} else if exists {
		s.logger.Info("条目已被处理过，跳过",
			elog.Any("entryID", entry.ID))
		if markErr := s.entryRepo.MarkDone(ctx, entry.ID); markErr != nil {
			s.logger.Error("标记条目完成失败",
				elog.Any("entryID", entry.ID),
				elog.FieldErr(markErr))
		}
		return
	}

	notification, err := s.notificationRepo.GetByID(ctx, entry.NotificationID)
	if err != nil {
		s.markFailed(ctx, entry.ID, fmt.Errorf("查询通知失败: %w", err))
		return
	}

	// SCHEDULED -> PENDING 流转失败说明通知已被别的路径处理
	err = s.notificationRepo.CASStatus(ctx, notification.ID,
		domain.SendStatusScheduled, domain.SendStatusPending)
	if err != nil {
		s.logger.Warn("通知状态流转失败，跳过发送",
			elog.Any("notificationID", notification.ID),
			elog.FieldErr(err))
		if markErr := s.entryRepo.MarkDone(ctx, entry.ID); markErr != nil {
			s.logger.Error("标记条目完成失败",
				elog.Any("entryID", entry.ID),
				elog.FieldErr(markErr))
		}
		return
	}
	notification.Status = domain.SendStatusPending

	if _, err = s.dispatcher.DispatchExisting(ctx, notification); err != nil {
		s.markFailed(ctx, entry.ID, err)
		return
	}

	if err = s.entryRepo.MarkDone(ctx, entry.ID); err != nil {
		s.logger.Error("标记条目完成失败",
			elog.Any("entryID", entry.ID),
			elog.FieldErr(err))
	}
}

// Start 通过分布式锁保证同一时刻只有一个实例在扫描
func (s *scheduler) Start(ctx context.Context) {
	job := loopjob.NewInfiniteLoop(s.dclient, func(ctx context.Context) error {
		err := s.ProcessScheduledNotifications(ctx)
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.sweepInterval):
			return nil
		}
	}, lockKey)
	job.Run(ctx)
}

func (s *scheduler) markFailed(ctx context.Context, entryID uint64, cause error) {
	if err := s.entryRepo.MarkFailed(ctx, entryID, cause.Error()); err != nil {
		s.logger.Error("标记条目失败状态失败",
			elog.Any("entryID", entryID),
			elog.FieldErr(err))
	}
}

func (s *scheduler) idempotencyKey(entry domain.ScheduledEntry) string {
	return "scheduled_entry:" + strconv.FormatUint(entry.ID, 10)
}
