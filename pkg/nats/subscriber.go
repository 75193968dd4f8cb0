// 文件: pkg/nats/subscriber.go
// NATS 消息订阅者：接收定价请求，有 Reply 主题时回写结果

package nats

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"
)

// MessageHandler 消息处理函数
// 返回的 reply 非空且消息带 Reply 主题时，会被回写给请求方
type MessageHandler func(subject string, data []byte) (reply []byte, err error)

// Subscriber NATS 订阅者
type Subscriber struct {
	conn    *nats.Conn
	subs    []*nats.Subscription
	handler MessageHandler
}

// NewSubscriber 在已有连接上创建订阅者
func NewSubscriber(conn *nats.Conn, handler MessageHandler) *Subscriber {
	return &Subscriber{
		conn:    conn,
		handler: handler,
	}
}

// SubscribeQueue 队列订阅 (多个定价实例之间负载均衡)
func (s *Subscriber) SubscribeQueue(subject, queue string) error {
	sub, err := s.conn.QueueSubscribe(subject, queue, s.dispatch)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) dispatch(msg *nats.Msg) {
	reply, err := s.handler(msg.Subject, msg.Data)
	if err != nil {
		log.Printf("[NATS] handle error: subject=%s, err=%v", msg.Subject, err)
	}
	if msg.Reply == "" || reply == nil {
		return
	}
	if err := msg.Respond(reply); err != nil {
		log.Printf("[NATS] respond error: subject=%s, err=%v", msg.Subject, err)
	}
}

// Close 取消所有订阅（连接由创建方关闭）
func (s *Subscriber) Close() error {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			return err
		}
	}
	s.subs = nil
	return nil
}

// =============================================================================
// 便捷方法
// =============================================================================

// UnmarshalJSON 反序列化 JSON
func UnmarshalJSON[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
