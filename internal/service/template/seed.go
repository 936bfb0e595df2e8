package template

import (
	"context"

	"gitee.com/flycash/rental-notification/internal/domain"
)

// defaultTemplates 内置模板，服务启动时幂等写入
var defaultTemplates = []domain.Template{
	{
		Name:            "booking_confirmed",
		Type:            domain.TypeBookingConfirmed,
		TitlePattern:    "预订确认：{{itemName}}",
		BodyPattern:     "您好 {{userName}}，您对 {{itemName}} 的预订已确认，租期 {{startDate}} 至 {{endDate}}。",
		DefaultChannels: []domain.Channel{domain.ChannelEmail, domain.ChannelInApp},
		DefaultPriority: domain.PriorityNormal,
		Variables:       []string{"userName", "itemName", "startDate", "endDate"},
		Active:          true,
	},
	{
		Name:            "booking_canceled",
		Type:            domain.TypeBookingCanceled,
		TitlePattern:    "预订已取消：{{itemName}}",
		BodyPattern:     "您好 {{userName}}，您对 {{itemName}} 的预订已取消。{{reason}}",
		DefaultChannels: []domain.Channel{domain.ChannelEmail, domain.ChannelInApp},
		DefaultPriority: domain.PriorityNormal,
		Variables:       []string{"userName", "itemName", "reason"},
		Active:          true,
	},
	{
		Name:            "payment_received",
		Type:            domain.TypePaymentReceived,
		TitlePattern:    "收款成功：{{amount}}",
		BodyPattern:     "您好 {{userName}}，我们已收到您支付的 {{amount}}，订单号 {{orderID}}。",
		DefaultChannels: []domain.Channel{domain.ChannelEmail, domain.ChannelInApp},
		DefaultPriority: domain.PriorityNormal,
		Variables:       []string{"userName", "amount", "orderID"},
		Active:          true,
	},
	{
		Name:            "payment_failed",
		Type:            domain.TypePaymentFailed,
		TitlePattern:    "支付失败：订单 {{orderID}}",
		BodyPattern:     "您好 {{userName}}，订单 {{orderID}} 支付失败：{{reason}}，请重新尝试。",
		DefaultChannels: []domain.Channel{domain.ChannelEmail, domain.ChannelSMS, domain.ChannelInApp},
		DefaultPriority: domain.PriorityHigh,
		Variables:       []string{"userName", "orderID", "reason"},
		Active:          true,
	},
	{
		Name:            "rental_reminder",
		Type:            domain.TypeRentalReminder,
		TitlePattern:    "归还提醒：{{itemName}}",
		BodyPattern:     "您好 {{userName}}，您租用的 {{itemName}} 将于 {{dueDate}} 到期，请及时归还。",
		DefaultChannels: []domain.Channel{domain.ChannelEmail, domain.ChannelPush},
		DefaultPriority: domain.PriorityNormal,
		Variables:       []string{"userName", "itemName", "dueDate"},
		Active:          true,
	},
	{
		Name:            "security_alert",
		Type:            domain.TypeSecurityAlert,
		TitlePattern:    "安全提醒",
		BodyPattern:     "您好 {{userName}}，检测到您的账号在 {{location}} 有异常登录，如非本人操作请立即修改密码。",
		DefaultChannels: []domain.Channel{domain.ChannelEmail, domain.ChannelSMS, domain.ChannelPush},
		DefaultPriority: domain.PriorityUrgent,
		Variables:       []string{"userName", "location"},
		Active:          true,
	},
	{
		Name:            "message_received",
		Type:            domain.TypeMessageReceived,
		TitlePattern:    "{{senderName}} 给您发来一条消息",
		BodyPattern:     "{{preview}}",
		DefaultChannels: []domain.Channel{domain.ChannelPush, domain.ChannelInApp},
		DefaultPriority: domain.PriorityNormal,
		Variables:       []string{"senderName", "preview"},
		Active:          true,
	},
	{
		Name:            "system_announcement",
		Type:            domain.TypeSystemAnnouncement,
		TitlePattern:    "{{title}}",
		BodyPattern:     "{{content}}",
		DefaultChannels: []domain.Channel{domain.ChannelInApp},
		DefaultPriority: domain.PriorityLow,
		Variables:       []string{"title", "content"},
		Active:          true,
	},
}

// SeedDefaults 将内置模板写入存储，按模板名幂等，可重复执行
func (s *templateService) SeedDefaults(ctx context.Context) error {
	for i := range defaultTemplates {
		if err := s.repo.Upsert(ctx, defaultTemplates[i]); err != nil {
			return err
		}
	}
	return nil
}
