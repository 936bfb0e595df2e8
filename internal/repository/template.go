package repository

import (
	"context"
	"encoding/json"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/repository/dao"
)

// TemplateRepository 模板仓储接口
type TemplateRepository interface {
	// GetByName 根据模板名获取模板
	GetByName(ctx context.Context, name string) (domain.Template, error)

	// ListActive 获取全部启用模板
	ListActive(ctx context.Context) ([]domain.Template, error)

	// Upsert 按模板名幂等写入
	Upsert(ctx context.Context, template domain.Template) error
}

// templateRepository 模板仓储实现
type templateRepository struct {
	dao dao.TemplateDAO
}

// NewTemplateRepository 创建模板仓储实例
func NewTemplateRepository(d dao.TemplateDAO) TemplateRepository {
	return &templateRepository{
		dao: d,
	}
}

func (r *templateRepository) GetByName(ctx context.Context, name string) (domain.Template, error) {
	entity, err := r.dao.GetByName(ctx, name)
	if err != nil {
		return domain.Template{}, err
	}
	return r.toDomain(entity), nil
}

func (r *templateRepository) ListActive(ctx context.Context) ([]domain.Template, error) {
	entities, err := r.dao.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	templates := make([]domain.Template, 0, len(entities))
	for i := range entities {
		templates = append(templates, r.toDomain(entities[i]))
	}
	return templates, nil
}

func (r *templateRepository) Upsert(ctx context.Context, template domain.Template) error {
	entity, err := r.toEntity(template)
	if err != nil {
		return err
	}
	return r.dao.Upsert(ctx, entity)
}

func (r *templateRepository) toEntity(t domain.Template) (dao.Template, error) {
	channels, err := json.Marshal(t.DefaultChannels)
	if err != nil {
		return dao.Template{}, err
	}
	variables, err := json.Marshal(t.Variables)
	if err != nil {
		return dao.Template{}, err
	}
	return dao.Template{
		ID:              t.ID,
		Name:            t.Name,
		Type:            string(t.Type),
		TitlePattern:    t.TitlePattern,
		BodyPattern:     t.BodyPattern,
		DefaultChannels: string(channels),
		DefaultPriority: string(t.DefaultPriority),
		Variables:       string(variables),
		Active:          t.Active,
	}, nil
}

func (r *templateRepository) toDomain(entity dao.Template) domain.Template {
	t := domain.Template{
		ID:              entity.ID,
		Name:            entity.Name,
		Type:            domain.NotificationType(entity.Type),
		TitlePattern:    entity.TitlePattern,
		BodyPattern:     entity.BodyPattern,
		DefaultPriority: domain.Priority(entity.DefaultPriority),
		Active:          entity.Active,
	}
	_ = json.Unmarshal([]byte(entity.DefaultChannels), &t.DefaultChannels)
	_ = json.Unmarshal([]byte(entity.Variables), &t.Variables)
	return t
}
