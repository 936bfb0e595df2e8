package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/rental-notification/internal/errs"

	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

// ScheduledEntryDAO 定时任务条目访问接口
type ScheduledEntryDAO interface {
	// Create 创建定时任务条目
	Create(ctx context.Context, data ScheduledEntry) (ScheduledEntry, error)

	// GetByID 根据ID查询条目
	GetByID(ctx context.Context, id uint64) (ScheduledEntry, error)

	// FindDue 查询已到期且仍为 PENDING 的条目，不修改状态
	FindDue(ctx context.Context, dueBefore int64, limit int) ([]ScheduledEntry, error)

	// Claim 乐观认领：仅当条目仍为 PENDING 时置为 PROCESSING
	// 被其他扫描抢先认领时返回 errs.ErrScheduledEntryClaimed
	Claim(ctx context.Context, id uint64) error

	// MarkDone 标记条目发送尝试完成
	MarkDone(ctx context.Context, id uint64) error

	// MarkFailed 标记条目发送尝试失败并记录原因
	MarkFailed(ctx context.Context, id uint64, lastError string) error
}

// ScheduledEntry 定时任务条目表
type ScheduledEntry struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement;comment:'条目ID'"`
	NotificationID uint64 `gorm:"NOT NULL;uniqueIndex:idx_notification;comment:'关联的通知ID'"`
	DueAt          int64  `gorm:"NOT NULL;index:idx_due,priority:2;comment:'触发时间'"`
	Status         string `gorm:"type:ENUM('PENDING','PROCESSING','DONE','FAILED');DEFAULT:'PENDING';index:idx_due,priority:1;comment:'处理状态'"`
	LastError      string `gorm:"type:VARCHAR(1024);comment:'最近一次失败原因'"`
	Ctime          int64
	Utime          int64
}

type scheduledEntryDAO struct {
	db *egorm.Component
}

// NewScheduledEntryDAO 创建定时任务DAO实例
func NewScheduledEntryDAO(db *egorm.Component) ScheduledEntryDAO {
	return &scheduledEntryDAO{
		db: db,
	}
}

func (d *scheduledEntryDAO) Create(ctx context.Context, data ScheduledEntry) (ScheduledEntry, error) {
	now := time.Now().UnixMilli()
	data.Ctime, data.Utime = now, now
	if data.Status == "" {
		data.Status = "PENDING"
	}

	if err := d.db.WithContext(ctx).Create(&data).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ScheduledEntry{}, fmt.Errorf("%w: notificationID = %d", errs.ErrNotificationDuplicate, data.NotificationID)
		}
		return ScheduledEntry{}, fmt.Errorf("%w: %w", errs.ErrScheduleFailed, err)
	}
	return data, nil
}

func (d *scheduledEntryDAO) GetByID(ctx context.Context, id uint64) (ScheduledEntry, error) {
	var entry ScheduledEntry
	err := d.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ScheduledEntry{}, fmt.Errorf("%w: id = %d", errs.ErrScheduledEntryNotFound, id)
		}
		return ScheduledEntry{}, err
	}
	return entry, nil
}

func (d *scheduledEntryDAO) FindDue(ctx context.Context, dueBefore int64, limit int) ([]ScheduledEntry, error) {
	var entries []ScheduledEntry
	err := d.db.WithContext(ctx).
		Where("status = ? AND due_at <= ?", "PENDING", dueBefore).
		Order("due_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (d *scheduledEntryDAO) Claim(ctx context.Context, id uint64) error {
	result := d.db.WithContext(ctx).
		Model(&ScheduledEntry{}).
		Where("id = ? AND status = ?", id, "PENDING").
		Updates(map[string]any{
			"status": "PROCESSING",
			"utime":  time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrScheduledEntryClaimed, id)
	}
	return nil
}

func (d *scheduledEntryDAO) MarkDone(ctx context.Context, id uint64) error {
	return d.markTerminal(ctx, id, "DONE", "")
}

func (d *scheduledEntryDAO) MarkFailed(ctx context.Context, id uint64, lastError string) error {
	return d.markTerminal(ctx, id, "FAILED", lastError)
}

func (d *scheduledEntryDAO) markTerminal(ctx context.Context, id uint64, status, lastError string) error {
	result := d.db.WithContext(ctx).
		Model(&ScheduledEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"last_error": lastError,
			"utime":      time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrScheduledEntryNotFound, id)
	}
	return nil
}
