package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ping struct {
	N int `json:"n"`
}

// setupNATS 连接本地 NATS，不可用时跳过
func setupNATS(t *testing.T) *Publisher {
	conn, err := Connect("nats://127.0.0.1:4222", "mcprice-test")
	if err != nil {
		t.Skipf("skipping test; nats not available: %v", err)
	}
	t.Cleanup(conn.Close)
	return NewPublisher(conn)
}

func TestUnmarshalJSON(t *testing.T) {
	v, err := UnmarshalJSON[ping]([]byte(`{"n":3}`))
	require.NoError(t, err)
	assert.Equal(t, 3, v.N)

	_, err = UnmarshalJSON[ping]([]byte(`{`))
	assert.Error(t, err)
}

func TestSubscriber_RequestReply(t *testing.T) {
	pub := setupNATS(t)

	sub := NewSubscriber(pub.conn, func(subject string, data []byte) ([]byte, error) {
		in, err := UnmarshalJSON[ping](data)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ping{N: in.N + 1})
	})
	require.NoError(t, sub.SubscribeQueue("mc.test.ping", "mc-test"))
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := pub.Request(ctx, "mc.test.ping", ping{N: 1})
	require.NoError(t, err)

	out, err := UnmarshalJSON[ping](reply)
	require.NoError(t, err)
	assert.Equal(t, 2, out.N)
}
