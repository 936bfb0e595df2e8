package local

import (
	"context"
	"time"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/repository"

	ca "github.com/patrickmn/go-cache"
)

const templateKeyPrefix = "template:"

// TemplateRepository 带本地缓存的模板仓储装饰器
// 模板在发送期间只读，短过期时间足以兜住管理端的低频修改
type TemplateRepository struct {
	repo repository.TemplateRepository
	c    *ca.Cache
}

// NewTemplateRepository 创建带本地缓存的模板仓储
func NewTemplateRepository(repo repository.TemplateRepository, expiration time.Duration) *TemplateRepository {
	return &TemplateRepository{
		repo: repo,
		c:    ca.New(expiration, expiration*2),
	}
}

func (r *TemplateRepository) GetByName(ctx context.Context, name string) (domain.Template, error) {
	key := templateKeyPrefix + name
	if v, ok := r.c.Get(key); ok {
		return v.(domain.Template), nil
	}

	template, err := r.repo.GetByName(ctx, name)
	if err != nil {
		return domain.Template{}, err
	}
	r.c.SetDefault(key, template)
	return template, nil
}

func (r *TemplateRepository) ListActive(ctx context.Context) ([]domain.Template, error) {
	return r.repo.ListActive(ctx)
}

// Upsert 写穿透，同时失效本地缓存
func (r *TemplateRepository) Upsert(ctx context.Context, template domain.Template) error {
	if err := r.repo.Upsert(ctx, template); err != nil {
		return err
	}
	r.c.Delete(templateKeyPrefix + template.Name)
	return nil
}
