package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"gitee.com/flycash/rental-notification/internal/errs"
)

// Channel 通知渠道
type Channel string

const (
	ChannelEmail   Channel = "EMAIL"   // 邮件
	ChannelSMS     Channel = "SMS"     // 短信
	ChannelPush    Channel = "PUSH"    // 推送
	ChannelWebhook Channel = "WEBHOOK" // 回调
	ChannelInApp   Channel = "IN_APP"  // 站内信
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelWebhook, ChannelInApp:
		return true
	default:
		return false
	}
}

// NotificationType 通知类型
type NotificationType string

const (
	TypeBookingConfirmed   NotificationType = "BOOKING_CONFIRMED"   // 预订确认
	TypeBookingCanceled    NotificationType = "BOOKING_CANCELED"    // 预订取消
	TypePaymentReceived    NotificationType = "PAYMENT_RECEIVED"    // 收款成功
	TypePaymentFailed      NotificationType = "PAYMENT_FAILED"      // 扣款失败
	TypeRentalReminder     NotificationType = "RENTAL_REMINDER"     // 租期提醒
	TypeSecurityAlert      NotificationType = "SECURITY_ALERT"      // 安全告警
	TypeMessageReceived    NotificationType = "MESSAGE_RECEIVED"    // 新消息
	TypeSystemAnnouncement NotificationType = "SYSTEM_ANNOUNCEMENT" // 系统公告
)

func (t NotificationType) IsValid() bool {
	switch t {
	case TypeBookingConfirmed, TypeBookingCanceled,
		TypePaymentReceived, TypePaymentFailed,
		TypeRentalReminder, TypeSecurityAlert,
		TypeMessageReceived, TypeSystemAnnouncement:
		return true
	default:
		return false
	}
}

// Priority 通知优先级
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// SendStatus 通知状态
type SendStatus string

const (
	SendStatusScheduled        SendStatus = "SCHEDULED"           // 定时待发送
	SendStatusPending          SendStatus = "PENDING"             // 待发送
	SendStatusDelivered        SendStatus = "DELIVERED"           // 全部渠道发送成功
	SendStatusPartialDelivered SendStatus = "PARTIALLY_DELIVERED" // 部分渠道发送成功
	SendStatusFailed           SendStatus = "FAILED"              // 发送失败
)

// IsTerminal 终态之后不允许再次流转，重发是一条新通知
func (s SendStatus) IsTerminal() bool {
	switch s {
	case SendStatusDelivered, SendStatusPartialDelivered, SendStatusFailed:
		return true
	default:
		return false
	}
}

// ChannelResult 单渠道单次发送结果
// 一次发送尝试对应一条结果，重试会产生新的发送尝试而不是原地修改
type ChannelResult struct {
	Channel           Channel   // 渠道
	Success           bool      // 是否成功
	ProviderMessageID string    // 供应商侧消息ID
	Error             string    // 失败原因
	DeliveredAt       time.Time // 送达时间
}

// Notification 通知领域模型
type Notification struct {
	ID             uint64                    // 通知唯一标识
	Type           NotificationType          // 通知类型
	UserID         int64                     // 接收者用户ID
	RecipientEmail string                    // 直接指定的邮箱，覆盖用户资料
	RecipientPhone string                    // 直接指定的手机号，覆盖用户资料
	Title          string                    // 标题
	Message        string                    // 正文
	Data           map[string]string         // 结构化数据
	Priority       Priority                  // 优先级
	Channels       []Channel                 // 显式指定的渠道列表，为空时由偏好解析
	Status         SendStatus                // 发送状态
	ScheduledAt    time.Time                 // 计划发送时间
	DeliveredAt    time.Time                 // 送达时间
	ExpiresAt      time.Time                 // 过期时间，过期后拒绝发送
	ChannelResults map[Channel]ChannelResult // 各渠道发送结果
	Metadata       map[string]string         // 业务元数据
	TemplateName   string                    // 模板名，为空表示直接使用 Title/Message
}

// Validate 校验发送前必须满足的不变量
// 类型、接收者、标题、正文缺失属于参数错误，不做静默兜底
func (n *Notification) Validate() error {
	if !n.Type.IsValid() {
		return fmt.Errorf("%w: Type = %q", errs.ErrInvalidParameter, n.Type)
	}

	if n.UserID <= 0 {
		return fmt.Errorf("%w: UserID = %d", errs.ErrInvalidParameter, n.UserID)
	}

	if n.Title == "" {
		return fmt.Errorf("%w: Title 不能为空", errs.ErrInvalidParameter)
	}

	if n.Message == "" {
		return fmt.Errorf("%w: Message 不能为空", errs.ErrInvalidParameter)
	}

	for _, ch := range n.Channels {
		if !ch.IsValid() {
			return fmt.Errorf("%w: Channel = %q", errs.ErrInvalidParameter, ch)
		}
	}

	return nil
}

// IsExpired 过期的通知不允许再尝试任何渠道
func (n *Notification) IsExpired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && !now.Before(n.ExpiresAt)
}

func (n *Notification) MarshalData() (string, error) {
	return n.marshal(n.Data)
}

func (n *Notification) MarshalMetadata() (string, error) {
	return n.marshal(n.Metadata)
}

func (n *Notification) marshal(v any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(jsonBytes), nil
}

// SendResponse 单条发送响应
type SendResponse struct {
	NotificationID uint64                    // 通知ID
	Status         SendStatus                // 最终状态
	Success        bool                      // 是否全部渠道成功
	Results        map[Channel]ChannelResult // 各渠道结果
	Errs           []error                   // 失败渠道的错误，成功时为空
}

// BatchSendResponse 批量发送响应
type BatchSendResponse struct {
	Results      []SendResponse // 所有结果
	TotalCount   int            // 总数
	SuccessCount int            // 成功数
}

// Success 仅当每一条都全渠道成功
func (b *BatchSendResponse) Success() bool {
	return b.SuccessCount == b.TotalCount
}

// DeliveryStatistics 发送统计，按状态/类型/渠道聚合
type DeliveryStatistics struct {
	Total     int64
	ByStatus  map[SendStatus]int64
	ByType    map[NotificationType]int64
	ByChannel map[Channel]int64
}
