package notification

import (
	"context"

	"gitee.com/flycash/rental-notification/internal/pkg/mqx"
	mq "github.com/ecodeclub/mq-api"
)

//go:generate mockgen -source=./producer.go -package=evtmocks -destination=../mocks/notification.mock.go -typed LifecycleEventProducer
type LifecycleEventProducer interface {
	Produce(ctx context.Context, evt Event) error
}

func NewLifecycleEventProducer(q mq.MQ) (LifecycleEventProducer, error) {
	return mqx.NewGeneralProducer[Event](q, eventName)
}
