package ioc

import (
	"context"

	"gitee.com/flycash/rental-notification/internal/service/dispatcher"
	"gitee.com/flycash/rental-notification/internal/service/scheduler"
	templatesvc "gitee.com/flycash/rental-notification/internal/service/template"

	"github.com/gotomicro/ego/core/elog"
)

// App 组装完成的通知引擎
type App struct {
	Dispatcher  dispatcher.Dispatcher
	Scheduler   scheduler.Scheduler
	TemplateSvc templatesvc.Service
}

// Start 写入内置模板并启动后台扫描，ctx 取消时退出
func (a *App) Start(ctx context.Context) {
	if err := a.TemplateSvc.SeedDefaults(ctx); err != nil {
		elog.Panic("写入内置模板失败", elog.FieldErr(err))
	}
	a.Scheduler.Start(ctx)
}
