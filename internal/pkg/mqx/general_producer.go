package mqx

import (
	"context"
	"encoding/json"
	"fmt"

	mq "github.com/ecodeclub/mq-api"
)

// GeneralProducer 泛型事件生产者，统一 JSON 编码
type GeneralProducer[T any] struct {
	producer mq.Producer
	topic    string
}

func NewGeneralProducer[T any](q mq.MQ, topic string) (*GeneralProducer[T], error) {
	p, err := q.Producer(topic)
	if err != nil {
		return nil, fmt.Errorf("创建生产者失败: %w", err)
	}
	return &GeneralProducer[T]{
		producer: p,
		topic:    topic,
	}, nil
}

func (p *GeneralProducer[T]) Produce(ctx context.Context, evt T) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	_, err = p.producer.Produce(ctx, &mq.Message{Value: data})
	if err != nil {
		return fmt.Errorf("发送事件失败 topic=%s: %w", p.topic, err)
	}
	return nil
}

func (p *GeneralProducer[T]) Close() {
	_ = p.producer.Close()
}
