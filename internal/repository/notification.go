package repository

import (
	"context"
	"encoding/json"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/repository/dao"
)

// NotificationRepository 通知仓储接口
// 即发送记录存储：通知与各渠道发送结果在这里持久化
type NotificationRepository interface {
	// Create 创建一条通知
	Create(ctx context.Context, notification domain.Notification) (domain.Notification, error)

	// GetByID 根据ID获取通知
	GetByID(ctx context.Context, id uint64) (domain.Notification, error)

	// BatchGetByIDs 根据ID列表获取通知
	BatchGetByIDs(ctx context.Context, ids []uint64) (map[uint64]domain.Notification, error)

	// UpdateDispatchResult 一次发送尝试结束后，单次写入终态与渠道结果
	UpdateDispatchResult(ctx context.Context, notification domain.Notification) error

	// CASStatus 乐观状态流转
	CASStatus(ctx context.Context, id uint64, from, to domain.SendStatus) error

	// GetStatistics 按状态/类型/渠道聚合统计，userID 为 0 时统计全量
	GetStatistics(ctx context.Context, userID int64) (domain.DeliveryStatistics, error)
}

// notificationRepository 通知仓储实现
type notificationRepository struct {
	dao dao.NotificationDAO
}

// NewNotificationRepository 创建通知仓储实例
func NewNotificationRepository(d dao.NotificationDAO) NotificationRepository {
	return &notificationRepository{
		dao: d,
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification domain.Notification) (domain.Notification, error) {
	entity, err := r.toEntity(notification)
	if err != nil {
		return domain.Notification{}, err
	}
	created, err := r.dao.Create(ctx, entity)
	if err != nil {
		return domain.Notification{}, err
	}
	return r.toDomain(created), nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id uint64) (domain.Notification, error) {
	entity, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Notification{}, err
	}
	return r.toDomain(entity), nil
}

func (r *notificationRepository) BatchGetByIDs(ctx context.Context, ids []uint64) (map[uint64]domain.Notification, error) {
	notificationMap, err := r.dao.BatchGetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	domainNotificationMap := make(map[uint64]domain.Notification, len(notificationMap))
	for id := range notificationMap {
		domainNotificationMap[id] = r.toDomain(notificationMap[id])
	}
	return domainNotificationMap, nil
}

func (r *notificationRepository) UpdateDispatchResult(ctx context.Context, notification domain.Notification) error {
	entity, err := r.toEntity(notification)
	if err != nil {
		return err
	}
	return r.dao.UpdateDispatchResult(ctx, entity)
}

func (r *notificationRepository) CASStatus(ctx context.Context, id uint64, from, to domain.SendStatus) error {
	return r.dao.CASStatus(ctx, id, string(from), string(to))
}

func (r *notificationRepository) GetStatistics(ctx context.Context, userID int64) (domain.DeliveryStatistics, error) {
	raw, err := r.dao.GetStatistics(ctx, userID)
	if err != nil {
		return domain.DeliveryStatistics{}, err
	}

	stats := domain.DeliveryStatistics{
		ByStatus:  make(map[domain.SendStatus]int64, len(raw.StatusCounts)),
		ByType:    make(map[domain.NotificationType]int64, len(raw.TypeCounts)),
		ByChannel: make(map[domain.Channel]int64),
	}
	for _, sc := range raw.StatusCounts {
		stats.ByStatus[domain.SendStatus(sc.Status)] = sc.Cnt
		stats.Total += sc.Cnt
	}
	for _, tc := range raw.TypeCounts {
		stats.ByType[domain.NotificationType(tc.Type)] = tc.Cnt
	}
	// 渠道维度按发送尝试计数，每条渠道结果记一次
	for _, rawResults := range raw.ChannelResults {
		var results map[domain.Channel]domain.ChannelResult
		if err := json.Unmarshal([]byte(rawResults), &results); err != nil {
			continue
		}
		for ch := range results {
			stats.ByChannel[ch]++
		}
	}
	return stats, nil
}

func (r *notificationRepository) toEntity(n domain.Notification) (dao.Notification, error) {
	channels, err := json.Marshal(n.Channels)
	if err != nil {
		return dao.Notification{}, err
	}
	results, err := json.Marshal(n.ChannelResults)
	if err != nil {
		return dao.Notification{}, err
	}
	data, err := n.MarshalData()
	if err != nil {
		return dao.Notification{}, err
	}
	metadata, err := n.MarshalMetadata()
	if err != nil {
		return dao.Notification{}, err
	}

	entity := dao.Notification{
		ID:             n.ID,
		Type:           string(n.Type),
		UserID:         n.UserID,
		RecipientEmail: n.RecipientEmail,
		RecipientPhone: n.RecipientPhone,
		Title:          n.Title,
		Message:        n.Message,
		Data:           data,
		Priority:       string(n.Priority),
		Channels:       string(channels),
		Status:         string(n.Status),
		ChannelResults: string(results),
		Metadata:       metadata,
	}
	if !n.ScheduledAt.IsZero() {
		entity.ScheduledAt = n.ScheduledAt.UnixMilli()
	}
	if !n.DeliveredAt.IsZero() {
		entity.DeliveredAt = n.DeliveredAt.UnixMilli()
	}
	if !n.ExpiresAt.IsZero() {
		entity.ExpiresAt = n.ExpiresAt.UnixMilli()
	}
	return entity, nil
}

func (r *notificationRepository) toDomain(entity dao.Notification) domain.Notification {
	n := domain.Notification{
		ID:             entity.ID,
		Type:           domain.NotificationType(entity.Type),
		UserID:         entity.UserID,
		RecipientEmail: entity.RecipientEmail,
		RecipientPhone: entity.RecipientPhone,
		Title:          entity.Title,
		Message:        entity.Message,
		Priority:       domain.Priority(entity.Priority),
		Status:         domain.SendStatus(entity.Status),
	}
	// JSON 列解析失败只能是脏数据，保留零值继续
	_ = json.Unmarshal([]byte(entity.Channels), &n.Channels)
	_ = json.Unmarshal([]byte(entity.ChannelResults), &n.ChannelResults)
	_ = json.Unmarshal([]byte(entity.Data), &n.Data)
	_ = json.Unmarshal([]byte(entity.Metadata), &n.Metadata)

	if entity.ScheduledAt > 0 {
		n.ScheduledAt = time.UnixMilli(entity.ScheduledAt)
	}
	if entity.DeliveredAt > 0 {
		n.DeliveredAt = time.UnixMilli(entity.DeliveredAt)
	}
	if entity.ExpiresAt > 0 {
		n.ExpiresAt = time.UnixMilli(entity.ExpiresAt)
	}
	return n
}
