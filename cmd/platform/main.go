package main

import (
	"context"
	"os/signal"
	"syscall"

	"gitee.com/flycash/rental-notification/cmd/platform/ioc"

	"github.com/gotomicro/ego"
)

func main() {
	if err := ego.New().Invoker(func() error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		app := ioc.InitApp()
		app.Start(ctx)
		return nil
	}).Run(); err != nil {
		panic(err)
	}
}
