package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/rental-notification/internal/errs"

	"github.com/ego-component/egorm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserContactDAO 用户联系方式访问接口
// 联系方式由用户中心同步过来，引擎侧只读
type UserContactDAO interface {
	// GetByUserID 查询用户联系方式
	GetByUserID(ctx context.Context, userID int64) (UserContact, error)

	// Upsert 按用户ID幂等写入，同步任务使用
	Upsert(ctx context.Context, contact UserContact) error
}

// UserContact 用户联系方式
type UserContact struct {
	ID     int64  `gorm:"primaryKey;autoIncrement;comment:'联系方式ID'"`
	UserID int64  `gorm:"type:BIGINT;NOT NULL;uniqueIndex:idx_user_id;comment:'用户ID'"`
	Email  string `gorm:"type:VARCHAR(256);comment:'邮箱'"`
	Phone  string `gorm:"type:VARCHAR(32);comment:'手机号'"`
	Ctime  int64
	Utime  int64
}

func (UserContact) TableName() string {
	return "user_contacts"
}

// userContactDAO 用户联系方式实现
type userContactDAO struct {
	db *egorm.Component
}

// NewUserContactDAO 创建用户联系方式实例
func NewUserContactDAO(db *egorm.Component) UserContactDAO {
	return &userContactDAO{
		db: db,
	}
}

func (d *userContactDAO) GetByUserID(ctx context.Context, userID int64) (UserContact, error) {
	var contact UserContact
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserContact{}, fmt.Errorf("%w: userID=%d", errs.ErrUserContactNotFound, userID)
		}
		return UserContact{}, err
	}
	return contact, nil
}

func (d *userContactDAO) Upsert(ctx context.Context, contact UserContact) error {
	now := time.Now().UnixMilli()
	contact.Ctime, contact.Utime = now, now
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"email": contact.Email,
			"phone": contact.Phone,
			"utime": now,
		}),
	}).Create(&contact).Error
}
