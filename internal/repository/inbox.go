package repository

import (
	"context"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/repository/dao"
)

// InboxRepository 站内信仓储接口
type InboxRepository interface {
	// Save 写入一条站内信，返回站内信ID
	Save(ctx context.Context, notification domain.Notification) (int64, error)

	// CountUnread 统计用户未读数量
	CountUnread(ctx context.Context, userID int64) (int64, error)

	// MarkRead 标记已读
	MarkRead(ctx context.Context, id int64) error
}

// inboxRepository 站内信仓储实现
type inboxRepository struct {
	dao dao.InboxDAO
}

// NewInboxRepository 创建站内信仓储实例
func NewInboxRepository(d dao.InboxDAO) InboxRepository {
	return &inboxRepository{
		dao: d,
	}
}

func (r *inboxRepository) Save(ctx context.Context, notification domain.Notification) (int64, error) {
	created, err := r.dao.Create(ctx, dao.InboxMessage{
		NotificationID: notification.ID,
		UserID:         notification.UserID,
		Title:          notification.Title,
		Body:           notification.Message,
	})
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (r *inboxRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	return r.dao.CountUnread(ctx, userID)
}

func (r *inboxRepository) MarkRead(ctx context.Context, id int64) error {
	return r.dao.MarkRead(ctx, id)
}
