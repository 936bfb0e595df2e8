package domain

import "time"

// ScheduleStatus 定时任务状态
type ScheduleStatus string

const (
	ScheduleStatusPending    ScheduleStatus = "PENDING"    // 待触发
	ScheduleStatusProcessing ScheduleStatus = "PROCESSING" // 已被本次扫描认领
	ScheduleStatusDone       ScheduleStatus = "DONE"       // 已完成发送尝试
	ScheduleStatusFailed     ScheduleStatus = "FAILED"     // 发送尝试失败
)

// ScheduledEntry 定时发送条目
// 生命周期：schedule() 时创建为 PENDING，
// 被扫描认领后进入 PROCESSING，发送尝试结束后进入 DONE 或 FAILED，
// 终态条目不会被后续扫描再次触发
type ScheduledEntry struct {
	ID             uint64    // 条目ID
	NotificationID uint64    // 关联的通知ID
	DueAt          time.Time // 触发时间
	Status         ScheduleStatus
	LastError      string // 最近一次失败原因
}
