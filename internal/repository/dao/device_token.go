package dao

import (
	"context"

	"github.com/ego-component/egorm"
)

// DeviceTokenDAO 推送设备令牌访问接口
type DeviceTokenDAO interface {
	// FindByUserID 查询用户全部设备令牌
	FindByUserID(ctx context.Context, userID int64) ([]DeviceToken, error)

	// DeleteByToken 删除指定令牌，令牌不存在时视为成功
	DeleteByToken(ctx context.Context, token string) error
}

// DeviceToken 推送设备令牌表
type DeviceToken struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	UserID   int64  `gorm:"type:BIGINT;NOT NULL;index:idx_user;comment:'用户ID'"`
	Token    string `gorm:"type:VARCHAR(512);NOT NULL;uniqueIndex:idx_token;comment:'设备令牌'"`
	Platform string `gorm:"type:VARCHAR(16);comment:'ios/android/web'"`
	Ctime    int64
	Utime    int64
}

type deviceTokenDAO struct {
	db *egorm.Component
}

// NewDeviceTokenDAO 创建设备令牌DAO实例
func NewDeviceTokenDAO(db *egorm.Component) DeviceTokenDAO {
	return &deviceTokenDAO{
		db: db,
	}
}

func (d *deviceTokenDAO) FindByUserID(ctx context.Context, userID int64) ([]DeviceToken, error) {
	var tokens []DeviceToken
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).Find(&tokens).Error
	return tokens, err
}

// DeleteByToken 幂等删除，重复删除不报错
func (d *deviceTokenDAO) DeleteByToken(ctx context.Context, token string) error {
	return d.db.WithContext(ctx).Where("token = ?", token).Delete(&DeviceToken{}).Error
}
