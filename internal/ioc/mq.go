package ioc

import (
	"context"
	"sync"

	mq "github.com/ecodeclub/mq-api"
	"github.com/ecodeclub/mq-api/memory"
)

var (
	q          mq.MQ
	mqInitOnce sync.Once
)

func InitMQ() mq.MQ {
	mqInitOnce.Do(func() {
		topics := []struct {
			name       string
			partitions int
		}{
			{name: "notification_events", partitions: 1},
		}
		qq := memory.NewMQ()
		for _, t := range topics {
			err := qq.CreateTopic(context.Background(), t.name, t.partitions)
			if err != nil {
				panic(err)
			}
		}
		q = qq
	})
	return q
}
