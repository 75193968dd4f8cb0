// 文件: pkg/nats/publisher.go
// NATS 消息发布者
// 用于推送定价报告，轻量级替代 Kafka，适合本地开发

package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher NATS 发布者
type Publisher struct {
	conn *nats.Conn
}

// Connect 连接 NATS，断线自动重连
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}

// NewPublisher 在已有连接上创建发布者
func NewPublisher(conn *nats.Conn) *Publisher {
	return &Publisher{conn: conn}
}

// Publish 以 JSON 发布消息
func (p *Publisher) Publish(subject string, data any) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, bytes)
}

// Request 发送请求并等待回复（CLI 远程定价用）
func (p *Publisher) Request(ctx context.Context, subject string, data any) ([]byte, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	msg, err := p.conn.RequestWithContext(ctx, subject, bytes)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", subject, err)
	}
	return msg.Data, nil
}

// Flush 确保已发布的消息到达服务器
func (p *Publisher) Flush() error {
	return p.conn.Flush()
}
