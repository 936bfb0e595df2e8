package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/rental-notification/internal/errs"

	"github.com/ego-component/egorm"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// NotificationDAO 通知记录访问接口
type NotificationDAO interface {
	// Create 创建单条通知记录
	Create(ctx context.Context, data Notification) (Notification, error)

	// GetByID 根据ID查询通知
	GetByID(ctx context.Context, id uint64) (Notification, error)

	// BatchGetByIDs 根据ID列表查询通知
	BatchGetByIDs(ctx context.Context, ids []uint64) (map[uint64]Notification, error)

	// GetByUserID 根据接收者查询通知列表
	GetByUserID(ctx context.Context, userID int64, limit int) ([]Notification, error)

	// UpdateDispatchResult 发送尝试结束后一次性写入终态与渠道结果
	UpdateDispatchResult(ctx context.Context, data Notification) error

	// CASStatus 乐观更新状态，前置状态不匹配时返回冲突错误
	CASStatus(ctx context.Context, id uint64, from, to string) error

	// GetStatistics 按状态/类型聚合统计，userID 为 0 时统计全量
	// 渠道维度的聚合在仓储层解析 channel_results 列完成
	GetStatistics(ctx context.Context, userID int64) (Statistics, error)
}

// Notification 通知记录表
type Notification struct {
	ID             uint64 `gorm:"primaryKey;comment:'雪花算法ID'"`
	Type           string `gorm:"type:VARCHAR(64);NOT NULL;index:idx_user_type,priority:2;comment:'通知类型'"`
	UserID         int64  `gorm:"type:BIGINT;NOT NULL;index:idx_user_type,priority:1;comment:'接收者用户ID'"`
	RecipientEmail string `gorm:"type:VARCHAR(256);comment:'覆盖用的收件邮箱'"`
	RecipientPhone string `gorm:"type:VARCHAR(32);comment:'覆盖用的收件手机号'"`
	Title          string `gorm:"type:VARCHAR(256);NOT NULL;comment:'标题'"`
	Message        string `gorm:"type:TEXT;NOT NULL;comment:'正文'"`
	Data           string `gorm:"type:TEXT;comment:'结构化数据，JSON对象'"`
	Priority       string `gorm:"type:ENUM('LOW','NORMAL','HIGH','URGENT');DEFAULT:'NORMAL';comment:'优先级'"`
	Channels       string `gorm:"type:TEXT;comment:'解析后的渠道列表，JSON数组'"`
	Status         string `gorm:"type:ENUM('SCHEDULED','PENDING','DELIVERED','PARTIALLY_DELIVERED','FAILED');DEFAULT:'PENDING';index:idx_status;comment:'发送状态'"`
	ScheduledAt    int64  `gorm:"comment:'计划发送时间'"`
	DeliveredAt    int64  `gorm:"comment:'送达时间，0表示未送达'"`
	ExpiresAt      int64  `gorm:"comment:'过期时间，0表示不过期'"`
	ChannelResults string `gorm:"type:TEXT;comment:'各渠道发送结果，JSON对象'"`
	Metadata       string `gorm:"type:TEXT;comment:'业务元数据，JSON对象'"`
	Ctime          int64
	Utime          int64
}

// StatusCount 按状态统计结果
type StatusCount struct {
	Status string
	Cnt    int64
}

// TypeCount 按类型统计结果
type TypeCount struct {
	Type string
	Cnt  int64
}

// Statistics 统计查询的原始结果
type Statistics struct {
	StatusCounts   []StatusCount
	TypeCounts     []TypeCount
	ChannelResults []string // channel_results 列原文，JSON 对象
}

type notificationDAO struct {
	db *egorm.Component
}

// NewNotificationDAO 创建通知DAO实例
func NewNotificationDAO(db *egorm.Component) NotificationDAO {
	return &notificationDAO{
		db: db,
	}
}

func (d *notificationDAO) Create(ctx context.Context, data Notification) (Notification, error) {
	now := time.Now().UnixMilli()
	data.Ctime, data.Utime = now, now

	if err := d.db.WithContext(ctx).Create(&data).Error; err != nil {
		if isUniqueConstraintError(err) {
			return Notification{}, fmt.Errorf("%w", errs.ErrNotificationDuplicate)
		}
		return Notification{}, fmt.Errorf("%w: %w", errs.ErrCreateNotificationFailed, err)
	}
	return data, nil
}

func (d *notificationDAO) GetByID(ctx context.Context, id uint64) (Notification, error) {
	var notification Notification
	err := d.db.WithContext(ctx).First(&notification, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Notification{}, fmt.Errorf("%w: id = %d", errs.ErrNotificationNotFound, id)
		}
		return Notification{}, err
	}
	return notification, nil
}

func (d *notificationDAO) BatchGetByIDs(ctx context.Context, ids []uint64) (map[uint64]Notification, error) {
	notificationMap := make(map[uint64]Notification, len(ids))
	if len(ids) == 0 {
		return notificationMap, nil
	}

	var notifications []Notification
	err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	for i := range notifications {
		notificationMap[notifications[i].ID] = notifications[i]
	}
	return notificationMap, nil
}

func (d *notificationDAO) GetByUserID(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	var notifications []Notification
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("ctime DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (d *notificationDAO) UpdateDispatchResult(ctx context.Context, data Notification) error {
	now := time.Now().UnixMilli()
	updates := map[string]any{
		"status":          data.Status,
		"channel_results": data.ChannelResults,
		"channels":        data.Channels,
		"delivered_at":    data.DeliveredAt,
		"utime":           now,
	}
	result := d.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ?", data.ID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrNotificationNotFound, data.ID)
	}
	return nil
}

func (d *notificationDAO) CASStatus(ctx context.Context, id uint64, from, to string) error {
	result := d.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status": to,
			"utime":  time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d, status = %s", errs.ErrNotificationNotFound, id, from)
	}
	return nil
}

func (d *notificationDAO) GetStatistics(ctx context.Context, userID int64) (Statistics, error) {
	byStatus := d.db.WithContext(ctx).
		Model(&Notification{}).
		Select("status AS status, COUNT(*) AS cnt").
		Group("status")
	byType := d.db.WithContext(ctx).
		Model(&Notification{}).
		Select("type AS type, COUNT(*) AS cnt").
		Group("type")
	byChannel := d.db.WithContext(ctx).
		Model(&Notification{}).
		Where("channel_results <> ''")
	if userID > 0 {
		byStatus = byStatus.Where("user_id = ?", userID)
		byType = byType.Where("user_id = ?", userID)
		byChannel = byChannel.Where("user_id = ?", userID)
	}

	var stats Statistics
	if err := byStatus.Find(&stats.StatusCounts).Error; err != nil {
		return Statistics{}, err
	}
	if err := byType.Find(&stats.TypeCounts).Error; err != nil {
		return Statistics{}, err
	}
	if err := byChannel.Pluck("channel_results", &stats.ChannelResults).Error; err != nil {
		return Statistics{}, err
	}
	return stats, nil
}

// isUniqueConstraintError 检查是否是唯一索引冲突错误
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	me := new(mysql.MySQLError)
	if ok := errors.As(err, &me); ok {
		const uniqueIndexErrNo uint16 = 1062
		return me.Number == uniqueIndexErrNo
	}
	return false
}
