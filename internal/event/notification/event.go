package notification

import "gitee.com/flycash/rental-notification/internal/domain"

const eventName = "notification_events"

// Event 通知生命周期事件
// 一次发送尝试结束后发出，供下游审计、推送未读数等场景消费
type Event struct {
	NotificationID uint64                                  `json:"notificationId"`
	UserID         int64                                   `json:"userId"`
	Type           domain.NotificationType                 `json:"type"`
	Status         domain.SendStatus                       `json:"status"`
	Results        map[domain.Channel]domain.ChannelResult `json:"results"`
}
