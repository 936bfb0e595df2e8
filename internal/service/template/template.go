package template

import (
	"context"
	"fmt"
	"strings"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"
	"gitee.com/flycash/rental-notification/internal/repository"
)

// Service 通知模板服务
// 渲染采用 {{key}} 字面量替换，不做表达式求值，未解析的占位符原样保留
//
//go:generate mockgen -source=./template.go -destination=./mocks/template.mock.go -package=templatemocks -typed Service
type Service interface {
	// GetByName 获取启用状态的模板，未找到或已停用返回 ErrTemplateNotFound
	GetByName(ctx context.Context, name string) (domain.Template, error)

	// Render 用 data 渲染模板的标题与正文
	Render(ctx context.Context, name string, data map[string]string) (domain.RenderedTemplate, error)

	// Upsert 按模板名幂等写入模板
	Upsert(ctx context.Context, template domain.Template) error

	// SeedDefaults 幂等写入内置模板
	SeedDefaults(ctx context.Context) error
}

// templateService 通知模板服务实现
type templateService struct {
	repo repository.TemplateRepository
}

// NewService 创建模板服务实例
func NewService(repo repository.TemplateRepository) Service {
	return &templateService{
		repo: repo,
	}
}

func (s *templateService) GetByName(ctx context.Context, name string) (domain.Template, error) {
	if name == "" {
		return domain.Template{}, fmt.Errorf("%w: 模板名不能为空", errs.ErrInvalidParameter)
	}
	tmpl, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return domain.Template{}, err
	}
	if !tmpl.Active {
		return domain.Template{}, fmt.Errorf("%w: 模板已停用 %s", errs.ErrTemplateNotFound, name)
	}
	return tmpl, nil
}

func (s *templateService) Render(ctx context.Context, name string, data map[string]string) (domain.RenderedTemplate, error) {
	tmpl, err := s.GetByName(ctx, name)
	if err != nil {
		return domain.RenderedTemplate{}, err
	}
	return domain.RenderedTemplate{
		Title:           substitute(tmpl.TitlePattern, data),
		Body:            substitute(tmpl.BodyPattern, data),
		DefaultChannels: tmpl.DefaultChannels,
		DefaultPriority: tmpl.DefaultPriority,
	}, nil
}

func (s *templateService) Upsert(ctx context.Context, template domain.Template) error {
	if err := template.Validate(); err != nil {
		return err
	}
	return s.repo.Upsert(ctx, template)
}

// substitute 将 pattern 中的 {{key}} 替换为 data[key]
// data 中没有的占位符原样保留，方便排查漏传的变量
func substitute(pattern string, data map[string]string) string {
	if len(data) == 0 {
		return pattern
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(pattern)
}
