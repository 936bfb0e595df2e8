package channel

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"
	"gitee.com/flycash/rental-notification/internal/repository"
)

// inAppChannel 站内信渠道适配器
// 投递即落库，没有外部供应商，失败只会来自存储层
type inAppChannel struct {
	inbox repository.InboxRepository
}

// NewInAppChannel 创建站内信渠道适配器
func NewInAppChannel(inbox repository.InboxRepository) Channel {
	return &inAppChannel{
		inbox: inbox,
	}
}

func (i *inAppChannel) Name() domain.Channel {
	return domain.ChannelInApp
}

func (i *inAppChannel) Send(ctx context.Context, notification domain.Notification) (domain.ChannelResult, error) {
	id, err := i.inbox.Save(ctx, notification)
	if err != nil {
		return failedResult(i.Name(), fmt.Errorf("%w: 写入站内信失败: %w", errs.ErrChannelSendFailed, err)), nil
	}
	return domain.ChannelResult{
		Channel:           i.Name(),
		Success:           true,
		ProviderMessageID: strconv.FormatInt(id, 10),
		DeliveredAt:       time.Now(),
	}, nil
}
