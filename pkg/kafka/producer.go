// 文件: pkg/kafka/producer.go
// 定价报告的 Kafka 生产者
//
// 特点:
// - 异步发送，报告按 run id 做分区 key
// - 发送错误只计数和记日志，不阻塞定价
// - 优雅关闭：等待错误通道排空

package kafka

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
)

// ErrProducerClosed 生产者已关闭
var ErrProducerClosed = errors.New("kafka producer is closed")

// =============================================================================
// Message 接口
// =============================================================================

// Message 可发送到 Kafka 的消息
type Message interface {
	Topic() string          // 目标 topic
	Key() string            // 分区 key
	Value() ([]byte, error) // 序列化后的消息体
}

// =============================================================================
// 配置
// =============================================================================

// ProducerConfig 生产者配置
type ProducerConfig struct {
	Brokers        []string      `yaml:"brokers"`
	ClientID       string        `yaml:"client_id"`
	RequiredAcks   int           `yaml:"required_acks"`   // 0=不等待, 1=leader确认, -1=全部确认
	Compression    string        `yaml:"compression"`     // none, gzip, snappy, lz4, zstd
	FlushFrequency time.Duration `yaml:"flush_frequency"` // 刷新间隔
	FlushMessages  int           `yaml:"flush_messages"`  // 批量消息数
	MaxRetries     int           `yaml:"max_retries"`
}

// DefaultProducerConfig 默认配置
// 报告量很小，批量参数取得比交易流保守
func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{
		Brokers:        brokers,
		ClientID:       "mcprice",
		RequiredAcks:   1,
		Compression:    "snappy",
		FlushFrequency: 200 * time.Millisecond,
		FlushMessages:  16,
		MaxRetries:     3,
	}
}

// saramaConfig 把 ProducerConfig 翻译成 sarama 配置
func (c ProducerConfig) saramaConfig() *sarama.Config {
	sc := sarama.NewConfig()
	if c.ClientID != "" {
		sc.ClientID = c.ClientID
	}

	switch c.RequiredAcks {
	case 0:
		sc.Producer.RequiredAcks = sarama.NoResponse
	case -1:
		sc.Producer.RequiredAcks = sarama.WaitForAll
	default:
		sc.Producer.RequiredAcks = sarama.WaitForLocal
	}

	switch c.Compression {
	case "gzip":
		sc.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		sc.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		sc.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		sc.Producer.Compression = sarama.CompressionZSTD
	default:
		sc.Producer.Compression = sarama.CompressionNone
	}

	sc.Producer.Flush.Frequency = c.FlushFrequency
	sc.Producer.Flush.Messages = c.FlushMessages
	sc.Producer.Retry.Max = c.MaxRetries
	sc.Producer.Return.Successes = false
	sc.Producer.Return.Errors = true
	return sc
}

// =============================================================================
// Producer
// =============================================================================

// Producer 异步 Kafka 生产者
type Producer struct {
	producer sarama.AsyncProducer

	sentCount  atomic.Int64
	errorCount atomic.Int64

	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewProducer 连接 broker 并创建生产者
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}

	ap, err := sarama.NewAsyncProducer(cfg.Brokers, cfg.saramaConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewProducerFromClient(ap), nil
}

// NewProducerFromClient 包装已有的 AsyncProducer（测试里传 sarama mocks）
func NewProducerFromClient(ap sarama.AsyncProducer) *Producer {
	p := &Producer{producer: ap}
	p.wg.Add(1)
	go p.handleErrors()
	return p
}

// Send 异步发送一条消息
func (p *Producer) Send(msg Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	data, err := msg.Value()
	if err != nil {
		return fmt.Errorf("serialize message: %w", err)
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: msg.Topic(),
		Key:   sarama.StringEncoder(msg.Key()),
		Value: sarama.ByteEncoder(data),
	}
	p.sentCount.Add(1)
	return nil
}

func (p *Producer) handleErrors() {
	defer p.wg.Done()

	for err := range p.producer.Errors() {
		p.errorCount.Add(1)
		log.Printf("[Kafka] send error: topic=%s, err=%v", err.Msg.Topic, err.Err)
	}
}

// ProducerStats 统计信息
type ProducerStats struct {
	SentCount  int64
	ErrorCount int64
}

// Stats 获取统计信息
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		SentCount:  p.sentCount.Load(),
		ErrorCount: p.errorCount.Load(),
	}
}

// Close 关闭生产者，可重复调用
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	err := p.producer.Close()
	p.wg.Wait()
	return err
}
