package errs

import (
	"errors"
)

// 定义统一的错误类型
var (
	ErrInvalidParameter             = errors.New("参数错误")
	ErrSendNotificationFailed       = errors.New("发送通知失败")
	ErrNotificationIDGenerateFailed = errors.New("通知ID生成失败")
	ErrNotificationNotFound         = errors.New("通知记录不存在")
	ErrCreateNotificationFailed     = errors.New("创建通知失败")
	ErrNotificationDuplicate        = errors.New("通知记录主键冲突")
	ErrNotificationExpired          = errors.New("通知已过期")

	ErrNoAvailableChannel  = errors.New("无可用渠道")
	ErrChannelSendFailed   = errors.New("渠道发送失败")
	ErrAllChannelsFailed   = errors.New("所有渠道发送失败")
	ErrUnregisteredChannel = errors.New("渠道未注册")

	ErrTemplateNotFound = errors.New("模板不存在或未启用")

	ErrScheduleFailed         = errors.New("创建定时通知失败")
	ErrScheduledEntryNotFound = errors.New("定时任务记录不存在")
	ErrScheduledEntryClaimed  = errors.New("定时任务记录已被认领")

	ErrPreferenceNotFound  = errors.New("用户偏好不存在")
	ErrUserContactNotFound = errors.New("用户联系方式不存在")
)
