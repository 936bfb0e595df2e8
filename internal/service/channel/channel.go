package channel

import (
	"context"
	"fmt"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"
)

// Channel 渠道适配器接口
// 适配器内部的传输错误不外抛，统一折叠进 ChannelResult
//
//go:generate mockgen -source=./channel.go -destination=./mocks/channel.mock.go -package=channelmocks -typed Channel
type Channel interface {
	// Name 渠道标识
	Name() domain.Channel
	// Send 通过本渠道发送一条通知
	// 返回 error 仅表示适配器自身无法给出结果（例如上下文取消），
	// 传输层失败体现在 ChannelResult.Success 与 ChannelResult.Error 上
	Send(ctx context.Context, notification domain.Notification) (domain.ChannelResult, error)
}

// RecipientDirectory 收件人信息目录，外部协作方契约
// 引擎只读，不负责维护用户资料
type RecipientDirectory interface {
	// Email 查询用户邮箱
	Email(ctx context.Context, userID int64) (string, error)
	// Phone 查询用户手机号
	Phone(ctx context.Context, userID int64) (string, error)
}

// Registry 渠道注册表
// 新渠道注册进来即可被编排器分发，编排器不感知具体渠道实现
type Registry struct {
	channels map[domain.Channel]Channel
}

// NewRegistry 创建渠道注册表
func NewRegistry(channels ...Channel) *Registry {
	r := &Registry{
		channels: make(map[domain.Channel]Channel, len(channels)),
	}
	for _, ch := range channels {
		r.channels[ch.Name()] = ch
	}
	return r
}

// Register 注册渠道，同名渠道后注册者覆盖
func (r *Registry) Register(ch Channel) {
	r.channels[ch.Name()] = ch
}

// Get 获取渠道适配器
func (r *Registry) Get(name domain.Channel) (Channel, error) {
	ch, ok := r.channels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnregisteredChannel, name)
	}
	return ch, nil
}

// failedResult 构造失败结果
func failedResult(name domain.Channel, err error) domain.ChannelResult {
	return domain.ChannelResult{
		Channel: name,
		Success: false,
		Error:   err.Error(),
	}
}
