package domain

import (
	"fmt"

	"gitee.com/flycash/rental-notification/internal/errs"
)

// Template 渠道无关的通知模板
// 发送期间只读，创建与修改由管理端负责
type Template struct {
	ID              int64            // 模板ID
	Name            string           // 模板名，全局唯一
	Type            NotificationType // 适用的通知类型
	TitlePattern    string           // 标题模板，形如 "您好 {{name}}"
	BodyPattern     string           // 正文模板
	DefaultChannels []Channel        // 默认渠道列表
	DefaultPriority Priority         // 默认优先级
	Variables       []string         // 声明的变量名，按序
	Active          bool             // 是否启用
}

func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: 模板名不能为空", errs.ErrInvalidParameter)
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: Type = %q", errs.ErrInvalidParameter, t.Type)
	}
	if t.TitlePattern == "" || t.BodyPattern == "" {
		return fmt.Errorf("%w: 模板内容不能为空", errs.ErrInvalidParameter)
	}
	return nil
}

// RenderedTemplate 渲染结果
// 携带模板的默认渠道与默认优先级，请求未显式指定时由编排器采用
type RenderedTemplate struct {
	Title           string
	Body            string
	DefaultChannels []Channel
	DefaultPriority Priority
}
