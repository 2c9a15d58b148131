package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/sirupsen/logrus"
)

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Consumer  = (*KafkaConsumer)(nil)
)

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logrus.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *logrus.Logger) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newKafkaPublisher(producer, topic, logger), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string, logger *logrus.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, log: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, messages [][]byte) error {
	if len(messages) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.producer.SendMessages(toKafkaMessages(messages, p.topic)); err != nil {
		p.log.Errorf("Queue: Failed to publish %d messages to '%s': %v", len(messages), p.topic, err)
		return fmt.Errorf("publish to kafka: %w", err)
	}
	p.log.Debugf("Queue: Published %d messages to '%s'", len(messages), p.topic)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

func toKafkaMessages(messages [][]byte, topic string) []*sarama.ProducerMessage {
	res := make([]*sarama.ProducerMessage, 0, len(messages))
	for _, message := range messages {
		res = append(res, &sarama.ProducerMessage{
			Topic: topic,
			Value: sarama.ByteEncoder(message),
		})
	}
	return res
}

// KafkaConsumer reads the topic as a member of a consumer group. Offsets are
// committed only for acknowledged messages.
type KafkaConsumer struct {
	group sarama.ConsumerGroup
	topic string
	log   *logrus.Logger
}

func NewKafkaConsumer(brokers []string, topic, groupID string, logger *logrus.Logger) (*KafkaConsumer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer group: %w", err)
	}
	return &KafkaConsumer{group: group, topic: topic, log: logger}, nil
}

func (c *KafkaConsumer) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	handler := &groupHandler{out: out}

	go func() {
		for err := range c.group.Errors() {
			c.log.Errorf("Queue: Consumer group error: %v", err)
		}
	}()

	go func() {
		defer close(out)
		for {
			// Consume returns on every rebalance and has to be called again.
			err := c.group.Consume(ctx, []string{c.topic}, handler)
			if errors.Is(err, sarama.ErrClosedConsumerGroup) || ctx.Err() != nil {
				return
			}
			if err != nil {
				c.log.Errorf("Queue: Consume from '%s' failed: %v", c.topic, err)
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *KafkaConsumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	out chan<- Message
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			m := Message{
				Payload: msg.Value,
				ack:     func() { sess.MarkMessage(msg, "") },
			}
			select {
			case h.out <- m:
			case <-sess.Context().Done():
				return nil
			}
		case <-sess.Context().Done():
			return nil
		}
	}
}
