package repository

import (
	"context"
	"encoding/json"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/repository/dao"
)

// PreferenceRepository 用户偏好仓储接口，引擎侧只读
type PreferenceRepository interface {
	// GetByUserID 获取用户通知偏好
	GetByUserID(ctx context.Context, userID int64) (domain.UserPreference, error)
}

// preferenceRepository 用户偏好仓储实现
type preferenceRepository struct {
	dao dao.PreferenceDAO
}

// NewPreferenceRepository 创建用户偏好仓储实例
func NewPreferenceRepository(d dao.PreferenceDAO) PreferenceRepository {
	return &preferenceRepository{
		dao: d,
	}
}

func (r *preferenceRepository) GetByUserID(ctx context.Context, userID int64) (domain.UserPreference, error) {
	entity, err := r.dao.GetByUserID(ctx, userID)
	if err != nil {
		return domain.UserPreference{}, err
	}

	preference := domain.UserPreference{
		UserID:          entity.UserID,
		Enabled:         entity.Enabled,
		QuietHoursStart: entity.QuietHoursStart,
		QuietHoursEnd:   entity.QuietHoursEnd,
		Timezone:        entity.Timezone,
	}
	_ = json.Unmarshal([]byte(entity.ChannelEnabled), &preference.ChannelEnabled)
	return preference, nil
}
