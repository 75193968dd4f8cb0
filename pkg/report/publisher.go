// 文件: pkg/report/publisher.go
// 报告发布：Kafka / NATS / 日志，可组合

package report

import (
	"context"
	"errors"
	"log"

	"max.com/mcoption/pkg/kafka"
	"max.com/mcoption/pkg/nats"
)

// Publisher 报告发布者
type Publisher interface {
	Publish(ctx context.Context, r Report) error
}

// KafkaPublisher 发往 Kafka
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaPublisher(p *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (p *KafkaPublisher) Publish(_ context.Context, r Report) error {
	return p.producer.Send(NewMessage(p.topic, r))
}

// NATSPublisher 发往 NATS 主题
type NATSPublisher struct {
	pub     *nats.Publisher
	subject string
}

func NewNATSPublisher(pub *nats.Publisher, subject string) *NATSPublisher {
	return &NATSPublisher{pub: pub, subject: subject}
}

func (p *NATSPublisher) Publish(_ context.Context, r Report) error {
	return p.pub.Publish(p.subject, r)
}

// LogPublisher 写日志
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, r Report) error {
	log.Printf("[Report] run=%s strategy=%s price=%s se=%s ref=%s z=%+.2f",
		r.Key(), r.Strategy, r.Price.StringFixed(4), r.StdErr.StringFixed(4), r.Reference.StringFixed(4), r.ZScore)
	return nil
}

// Multi 依次发给所有发布者，错误合并返回
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, r Report) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
