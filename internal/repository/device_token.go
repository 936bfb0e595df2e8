package repository

import (
	"context"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/repository/dao"

	"github.com/ecodeclub/ekit/slice"
)

// DeviceTokenRepository 推送设备令牌仓储接口
type DeviceTokenRepository interface {
	// FindByUserID 获取用户全部设备令牌
	FindByUserID(ctx context.Context, userID int64) ([]domain.DeviceToken, error)

	// Remove 删除失效令牌，幂等
	Remove(ctx context.Context, token string) error
}

// deviceTokenRepository 推送设备令牌仓储实现
type deviceTokenRepository struct {
	dao dao.DeviceTokenDAO
}

// NewDeviceTokenRepository 创建设备令牌仓储实例
func NewDeviceTokenRepository(d dao.DeviceTokenDAO) DeviceTokenRepository {
	return &deviceTokenRepository{
		dao: d,
	}
}

func (r *deviceTokenRepository) FindByUserID(ctx context.Context, userID int64) ([]domain.DeviceToken, error) {
	entities, err := r.dao.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return slice.Map(entities, func(_ int, src dao.DeviceToken) domain.DeviceToken {
		return domain.DeviceToken{
			ID:       src.ID,
			UserID:   src.UserID,
			Token:    src.Token,
			Platform: src.Platform,
		}
	}), nil
}

func (r *deviceTokenRepository) Remove(ctx context.Context, token string) error {
	return r.dao.DeleteByToken(ctx, token)
}
