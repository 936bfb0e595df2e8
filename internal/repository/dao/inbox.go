package dao

import (
	"context"
	"time"

	"github.com/ego-component/egorm"
)

// InboxDAO 站内信访问接口
type InboxDAO interface {
	// Create 写入一条站内信
	Create(ctx context.Context, data InboxMessage) (InboxMessage, error)

	// CountUnread 统计用户未读站内信数量
	CountUnread(ctx context.Context, userID int64) (int64, error)

	// MarkRead 标记站内信已读
	MarkRead(ctx context.Context, id int64) error
}

// InboxMessage 站内信表
type InboxMessage struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	NotificationID uint64 `gorm:"NOT NULL;index:idx_notification;comment:'来源通知ID'"`
	UserID         int64  `gorm:"type:BIGINT;NOT NULL;index:idx_user_read,priority:1;comment:'用户ID'"`
	Title          string `gorm:"type:VARCHAR(256);NOT NULL"`
	Body           string `gorm:"type:TEXT;NOT NULL"`
	ReadFlag       bool   `gorm:"DEFAULT:false;index:idx_user_read,priority:2;comment:'是否已读'"`
	Ctime          int64
	Utime          int64
}

type inboxDAO struct {
	db *egorm.Component
}

// NewInboxDAO 创建站内信DAO实例
func NewInboxDAO(db *egorm.Component) InboxDAO {
	return &inboxDAO{
		db: db,
	}
}

func (d *inboxDAO) Create(ctx context.Context, data InboxMessage) (InboxMessage, error) {
	now := time.Now().UnixMilli()
	data.Ctime, data.Utime = now, now
	err := d.db.WithContext(ctx).Create(&data).Error
	return data, err
}

func (d *inboxDAO) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var cnt int64
	err := d.db.WithContext(ctx).
		Model(&InboxMessage{}).
		Where("user_id = ? AND read_flag = ?", userID, false).
		Count(&cnt).Error
	return cnt, err
}

func (d *inboxDAO) MarkRead(ctx context.Context, id int64) error {
	return d.db.WithContext(ctx).
		Model(&InboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"read_flag": true,
			"utime":     time.Now().UnixMilli(),
		}).Error
}
