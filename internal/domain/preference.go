package domain

import "time"

// UserPreference 用户通知偏好，引擎侧只读
type UserPreference struct {
	UserID          int64            // 用户ID
	Enabled         bool             // 总开关
	ChannelEnabled  map[Channel]bool // 各渠道开关
	QuietHoursStart string           // 免打扰开始，"HH:MM"
	QuietHoursEnd   string           // 免打扰结束，"HH:MM"
	Timezone        string           // IANA 时区名
}

// ChannelAllowed 未显式配置的渠道视为开启
func (p *UserPreference) ChannelAllowed(ch Channel) bool {
	if p.ChannelEnabled == nil {
		return true
	}
	enabled, ok := p.ChannelEnabled[ch]
	if !ok {
		return true
	}
	return enabled
}

// InQuietHours 判断 now 是否落在用户时区的免打扰窗口内
// 时区解析失败按 UTC 处理，不会因此拒绝发送
func (p *UserPreference) InQuietHours(now time.Time) bool {
	if p.QuietHoursStart == "" || p.QuietHoursEnd == "" {
		return false
	}

	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)

	start, err := parseClock(p.QuietHoursStart)
	if err != nil {
		return false
	}
	end, err := parseClock(p.QuietHoursEnd)
	if err != nil {
		return false
	}

	cur := local.Hour()*60 + local.Minute()
	if start == end {
		return false
	}
	if start < end {
		return cur >= start && cur < end
	}
	// 跨午夜窗口，例如 22:00 - 08:00
	return cur >= start || cur < end
}

// parseClock 将 "HH:MM" 转成当日分钟数
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// DeviceToken 用户推送设备令牌
type DeviceToken struct {
	ID       int64
	UserID   int64
	Token    string
	Platform string // ios / android / web
}
