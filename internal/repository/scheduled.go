package repository

import (
	"context"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/repository/dao"
)

// ScheduledEntryRepository 定时任务条目仓储接口
type ScheduledEntryRepository interface {
	// Create 创建定时任务条目
	Create(ctx context.Context, entry domain.ScheduledEntry) (domain.ScheduledEntry, error)

	// GetByID 根据ID获取条目
	GetByID(ctx context.Context, id uint64) (domain.ScheduledEntry, error)

	// FindDue 查询已到期且仍为 PENDING 的条目
	FindDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledEntry, error)

	// Claim 乐观认领条目，已被认领时返回 errs.ErrScheduledEntryClaimed
	Claim(ctx context.Context, id uint64) error

	// MarkDone 标记发送尝试完成
	MarkDone(ctx context.Context, id uint64) error

	// MarkFailed 标记发送尝试失败
	MarkFailed(ctx context.Context, id uint64, lastError string) error
}

// scheduledEntryRepository 定时任务条目仓储实现
type scheduledEntryRepository struct {
	dao dao.ScheduledEntryDAO
}

// NewScheduledEntryRepository 创建定时任务条目仓储实例
func NewScheduledEntryRepository(d dao.ScheduledEntryDAO) ScheduledEntryRepository {
	return &scheduledEntryRepository{
		dao: d,
	}
}

func (r *scheduledEntryRepository) Create(ctx context.Context, entry domain.ScheduledEntry) (domain.ScheduledEntry, error) {
	created, err := r.dao.Create(ctx, dao.ScheduledEntry{
		NotificationID: entry.NotificationID,
		DueAt:          entry.DueAt.UnixMilli(),
		Status:         string(entry.Status),
	})
	if err != nil {
		return domain.ScheduledEntry{}, err
	}
	return r.toDomain(created), nil
}

func (r *scheduledEntryRepository) GetByID(ctx context.Context, id uint64) (domain.ScheduledEntry, error) {
	entity, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.ScheduledEntry{}, err
	}
	return r.toDomain(entity), nil
}

func (r *scheduledEntryRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledEntry, error) {
	entities, err := r.dao.FindDue(ctx, now.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.ScheduledEntry, 0, len(entities))
	for i := range entities {
		entries = append(entries, r.toDomain(entities[i]))
	}
	return entries, nil
}

func (r *scheduledEntryRepository) Claim(ctx context.Context, id uint64) error {
	return r.dao.Claim(ctx, id)
}

func (r *scheduledEntryRepository) MarkDone(ctx context.Context, id uint64) error {
	return r.dao.MarkDone(ctx, id)
}

func (r *scheduledEntryRepository) MarkFailed(ctx context.Context, id uint64, lastError string) error {
	return r.dao.MarkFailed(ctx, id, lastError)
}

func (r *scheduledEntryRepository) toDomain(entity dao.ScheduledEntry) domain.ScheduledEntry {
	return domain.ScheduledEntry{
		ID:             entity.ID,
		NotificationID: entity.NotificationID,
		DueAt:          time.UnixMilli(entity.DueAt),
		Status:         domain.ScheduleStatus(entity.Status),
		LastError:      entity.LastError,
	}
}
