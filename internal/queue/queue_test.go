package queue

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestMemoryQueue_PublishAndConsume(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Publish(ctx, [][]byte{[]byte("a"), []byte("b")}))
	assert.Equal(t, 2, q.Len())

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)

	var got []string
	for i := 0; i < 2; i++ {
		select {
		case m := <-msgs:
			m.Ack()
			got = append(got, string(m.Payload))
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)

	cancel()
	_, open := <-msgs
	assert.False(t, open)
}

func TestMemoryQueue_PublishAfterClose(t *testing.T) {
	q := NewMemoryQueue(1)
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	assert.ErrorIs(t, q.Publish(context.Background(), [][]byte{[]byte("x")}), ErrQueueClosed)
}

func TestMemoryQueue_PublishRespectsContext(t *testing.T) {
	q := NewMemoryQueue(1)
	require.NoError(t, q.Publish(context.Background(), [][]byte{[]byte("fill")}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Publish(ctx, [][]byte{[]byte("blocked")}), context.DeadlineExceeded)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != "job-1" {
			return fmt.Errorf("unexpected payload %q", val)
		}
		return nil
	})
	producer.ExpectSendMessageAndSucceed()

	pub := newKafkaPublisher(producer, "notifications", newTestLogger())
	require.NoError(t, pub.Publish(context.Background(), [][]byte{[]byte("job-1"), []byte("job-2")}))
	require.NoError(t, pub.Close())
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := newKafkaPublisher(producer, "notifications", newTestLogger())
	err := pub.Publish(context.Background(), [][]byte{[]byte("job-1")})
	require.Error(t, err)
	require.NoError(t, pub.Close())
}

func TestToKafkaMessages(t *testing.T) {
	msgs := toKafkaMessages([][]byte{[]byte("a")}, "topic")
	require.Len(t, msgs, 1)
	assert.Equal(t, "topic", msgs[0].Topic)
	assert.Equal(t, sarama.ByteEncoder("a"), msgs[0].Value)
}
