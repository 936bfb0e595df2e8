package repository

import (
	"context"

	"gitee.com/flycash/rental-notification/internal/repository/dao"
)

// UserContactDirectory 收件人信息目录实现，满足渠道适配器的只读契约
type UserContactDirectory struct {
	dao dao.UserContactDAO
}

// NewUserContactDirectory 创建收件人信息目录实例
func NewUserContactDirectory(d dao.UserContactDAO) *UserContactDirectory {
	return &UserContactDirectory{
		dao: d,
	}
}

func (r *UserContactDirectory) Email(ctx context.Context, userID int64) (string, error) {
	contact, err := r.dao.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	return contact.Email, nil
}

func (r *UserContactDirectory) Phone(ctx context.Context, userID int64) (string, error) {
	contact, err := r.dao.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	return contact.Phone, nil
}
