// Package queue moves notification jobs from the outbox relay to the
// dispatcher workers.
package queue

import "context"

type Publisher interface {
	Publish(ctx context.Context, messages [][]byte) error
	Close() error
}

// Message is one delivered payload. Ack must be called once the payload
// has been handled; unacknowledged messages may be redelivered.
type Message struct {
	Payload []byte
	ack     func()
}

// NewMessage wraps a payload with the callback that acknowledges it.
func NewMessage(payload []byte, ack func()) Message {
	return Message{Payload: payload, ack: ack}
}

func (m Message) Ack() {
	if m.ack != nil {
		m.ack()
	}
}

type Consumer interface {
	// Consume streams messages until ctx is cancelled, then closes the channel.
	Consume(ctx context.Context) (<-chan Message, error)
	Close() error
}
