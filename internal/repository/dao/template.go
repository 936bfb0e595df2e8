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

// TemplateDAO 模板访问接口
type TemplateDAO interface {
	// GetByName 根据模板名查询模板
	GetByName(ctx context.Context, name string) (Template, error)

	// ListActive 查询全部启用的模板
	ListActive(ctx context.Context) ([]Template, error)

	// Upsert 按模板名幂等写入，用于启动时灌入默认模板
	Upsert(ctx context.Context, data Template) error
}

// Template 通知模板表
type Template struct {
	ID              int64  `gorm:"primaryKey;autoIncrement;comment:'模板ID'"`
	Name            string `gorm:"type:VARCHAR(128);NOT NULL;uniqueIndex:idx_name;comment:'模板名'"`
	Type            string `gorm:"type:VARCHAR(64);NOT NULL;comment:'适用的通知类型'"`
	TitlePattern    string `gorm:"type:VARCHAR(512);NOT NULL;comment:'标题模板'"`
	BodyPattern     string `gorm:"type:TEXT;NOT NULL;comment:'正文模板'"`
	DefaultChannels string `gorm:"type:TEXT;comment:'默认渠道列表，JSON数组'"`
	DefaultPriority string `gorm:"type:VARCHAR(16);DEFAULT:'NORMAL';comment:'默认优先级'"`
	Variables       string `gorm:"type:TEXT;comment:'声明的变量名，JSON数组'"`
	Active          bool   `gorm:"DEFAULT:true;comment:'是否启用'"`
	Ctime           int64
	Utime           int64
}

type templateDAO struct {
	db *egorm.Component
}

// NewTemplateDAO 创建模板DAO实例
func NewTemplateDAO(db *egorm.Component) TemplateDAO {
	return &templateDAO{
		db: db,
	}
}

func (d *templateDAO) GetByName(ctx context.Context, name string) (Template, error) {
	var template Template
	err := d.db.WithContext(ctx).First(&template, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Template{}, fmt.Errorf("%w: name = %q", errs.ErrTemplateNotFound, name)
		}
		return Template{}, err
	}
	return template, nil
}

func (d *templateDAO) ListActive(ctx context.Context) ([]Template, error) {
	var templates []Template
	err := d.db.WithContext(ctx).Where("active = ?", true).Find(&templates).Error
	return templates, err
}

func (d *templateDAO) Upsert(ctx context.Context, data Template) error {
	now := time.Now().UnixMilli()
	data.Ctime, data.Utime = now, now
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"type", "title_pattern", "body_pattern",
			"default_channels", "default_priority", "variables", "active", "utime",
		}),
	}).Create(&data).Error
}
