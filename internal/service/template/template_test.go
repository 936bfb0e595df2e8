package template

import (
	"context"
	"fmt"
	"testing"

	"gitee.com/flycash/rental-notification/internal/domain"
	"gitee.com/flycash/rental-notification/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTemplateRepo 内存模板仓储
type fakeTemplateRepo struct {
	templates map[string]domain.Template
}

func newFakeTemplateRepo(templates ...domain.Template) *fakeTemplateRepo {
	repo := &fakeTemplateRepo{
		templates: make(map[string]domain.Template, len(templates)),
	}
	for i := range templates {
		repo.templates[templates[i].Name] = templates[i]
	}
	return repo
}

func (f *fakeTemplateRepo) GetByName(_ context.Context, name string) (domain.Template, error) {
	tmpl, ok := f.templates[name]
	if !ok {
		return domain.Template{}, fmt.Errorf("%w: %s", errs.ErrTemplateNotFound, name)
	}
	return tmpl, nil
}

func (f *fakeTemplateRepo) ListActive(_ context.Context) ([]domain.Template, error) {
	result := make([]domain.Template, 0, len(f.templates))
	for _, tmpl := range f.templates {
		if tmpl.Active {
			result = append(result, tmpl)
		}
	}
	return result, nil
}

func (f *fakeTemplateRepo) Upsert(_ context.Context, template domain.Template) error {
	f.templates[template.Name] = template
	return nil
}

func TestTemplateService_Render(t *testing.T) {
	t.Parallel()

	bookingTmpl := domain.Template{
		Name:         "booking_confirmed",
		Type:         domain.TypeBookingConfirmed,
		TitlePattern: "预订确认：{{itemName}}",
		BodyPattern:  "您好 {{userName}}，您对 {{itemName}} 的预订已确认。",
		Active:       true,
	}
	inactiveTmpl := domain.Template{
		Name:         "old_announcement",
		Type:         domain.TypeSystemAnnouncement,
		TitlePattern: "{{title}}",
		BodyPattern:  "{{content}}",
		Active:       false,
	}

	testCases := []struct {
		name          string
		templateName  string
		data          map[string]string
		wantTitle     string
		wantBody      string
		assertFunc    assert.ErrorAssertionFunc
		wantErrTarget error
	}{
		{
			name:         "全部变量正常替换",
			templateName: "booking_confirmed",
			data: map[string]string{
				"userName": "张三",
				"itemName": "相机",
			},
			wantTitle:  "预订确认：相机",
			wantBody:   "您好 张三，您对 相机 的预订已确认。",
			assertFunc: assert.NoError,
		},
		{
			name:         "缺失的变量原样保留",
			templateName: "booking_confirmed",
			data: map[string]string{
				"itemName": "相机",
			},
			wantTitle:  "预订确认：相机",
			wantBody:   "您好 {{userName}}，您对 相机 的预订已确认。",
			assertFunc: assert.NoError,
		},
		{
			name:          "data 为空时模板原样返回",
			templateName:  "booking_confirmed",
			data:          nil,
			wantTitle:     "预订确认：{{itemName}}",
			wantBody:      "您好 {{userName}}，您对 {{itemName}} 的预订已确认。",
			assertFunc:    assert.NoError,
			wantErrTarget: nil,
		},
		{
			name:          "模板不存在",
			templateName:  "not_exist",
			assertFunc:    assert.Error,
			wantErrTarget: errs.ErrTemplateNotFound,
		},
		{
			name:          "模板已停用",
			templateName:  "old_announcement",
			assertFunc:    assert.Error,
			wantErrTarget: errs.ErrTemplateNotFound,
		},
		{
			name:          "模板名为空",
			templateName:  "",
			assertFunc:    assert.Error,
			wantErrTarget: errs.ErrInvalidParameter,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := NewService(newFakeTemplateRepo(bookingTmpl, inactiveTmpl))

			rendered, err := svc.Render(t.Context(), tc.templateName, tc.data)
			tc.assertFunc(t, err)
			if tc.wantErrTarget != nil {
				assert.ErrorIs(t, err, tc.wantErrTarget)
				return
			}
			if err != nil {
				return
			}
			assert.Equal(t, tc.wantTitle, rendered.Title)
			assert.Equal(t, tc.wantBody, rendered.Body)
		})
	}
}

func TestTemplateService_Upsert(t *testing.T) {
	t.Parallel()

	t.Run("非法模板被拒绝", func(t *testing.T) {
		t.Parallel()
		svc := NewService(newFakeTemplateRepo())
		err := svc.Upsert(t.Context(), domain.Template{
			Name: "no_body",
			Type: domain.TypeRentalReminder,
		})
		assert.ErrorIs(t, err, errs.ErrInvalidParameter)
	})

	t.Run("合法模板写入后可读取", func(t *testing.T) {
		t.Parallel()
		repo := newFakeTemplateRepo()
		svc := NewService(repo)
		err := svc.Upsert(t.Context(), domain.Template{
			Name:         "rental_reminder",
			Type:         domain.TypeRentalReminder,
			TitlePattern: "归还提醒：{{itemName}}",
			BodyPattern:  "请于 {{dueDate}} 前归还。",
			Active:       true,
		})
		require.NoError(t, err)

		tmpl, err := svc.GetByName(t.Context(), "rental_reminder")
		require.NoError(t, err)
		assert.Equal(t, "归还提醒：{{itemName}}", tmpl.TitlePattern)
	})
}

func TestTemplateService_SeedDefaults(t *testing.T) {
	t.Parallel()
	repo := newFakeTemplateRepo()
	svc := NewService(repo)

	require.NoError(t, svc.SeedDefaults(t.Context()))
	// 幂等，重复执行不报错
	require.NoError(t, svc.SeedDefaults(t.Context()))

	tmpl, err := svc.GetByName(t.Context(), "security_alert")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityUrgent, tmpl.DefaultPriority)
	assert.Len(t, repo.templates, len(defaultTemplates))
}
