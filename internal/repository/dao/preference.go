package dao

import (
	"context"
	"errors"
	"fmt"

	"gitee.com/flycash/rental-notification/internal/errs"

	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

// PreferenceDAO 用户偏好访问接口，引擎侧只读
type PreferenceDAO interface {
	// GetByUserID 查询用户通知偏好
	GetByUserID(ctx context.Context, userID int64) (UserPreference, error)
}

// UserPreference 用户通知偏好表
type UserPreference struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	UserID          int64  `gorm:"type:BIGINT;NOT NULL;uniqueIndex:idx_user;comment:'用户ID'"`
	Enabled         bool   `gorm:"DEFAULT:true;comment:'通知总开关'"`
	ChannelEnabled  string `gorm:"type:TEXT;comment:'各渠道开关，JSON对象'"`
	QuietHoursStart string `gorm:"type:VARCHAR(8);comment:'免打扰开始 HH:MM'"`
	QuietHoursEnd   string `gorm:"type:VARCHAR(8);comment:'免打扰结束 HH:MM'"`
	Timezone        string `gorm:"type:VARCHAR(64);DEFAULT:'UTC';comment:'IANA时区名'"`
	Ctime           int64
	Utime           int64
}

type preferenceDAO struct {
	db *egorm.Component
}

// NewPreferenceDAO 创建用户偏好DAO实例
func NewPreferenceDAO(db *egorm.Component) PreferenceDAO {
	return &preferenceDAO{
		db: db,
	}
}

func (d *preferenceDAO) GetByUserID(ctx context.Context, userID int64) (UserPreference, error) {
	var preference UserPreference
	err := d.db.WithContext(ctx).First(&preference, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserPreference{}, fmt.Errorf("%w: userID = %d", errs.ErrPreferenceNotFound, userID)
		}
		return UserPreference{}, err
	}
	return preference, nil
}
