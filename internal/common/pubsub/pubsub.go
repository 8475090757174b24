// Package pubsub defines the message transport used by the event pipeline.
//
// The transport contract mirrors a cloud pub/sub service: publish bytes with
// string attributes to a named topic, subscribe with a callback, and settle
// each delivery with Ack or Nack. Nacked (or never-settled) messages are
// redelivered; redelivery bounds and dead-lettering are transport
// configuration, not consumer code.
package pubsub

import "context"

// Message is one delivery. A message must always reach a terminal state:
// exactly one of Ack or Nack per delivery.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string

	ackFn  func() error
	nackFn func()
}

// Ack marks the delivery as done; the transport will not redeliver it.
func (m *Message) Ack() error {
	if m.ackFn == nil {
		return nil
	}
	return m.ackFn()
}

// Nack leaves the delivery unsettled so the transport redelivers it.
func (m *Message) Nack() {
	if m.nackFn != nil {
		m.nackFn()
	}
}

// NewMessage builds a Message with explicit settlement hooks. Exported for
// in-memory fakes in tests.
func NewMessage(id string, data []byte, attrs map[string]string, ack func() error, nack func()) *Message {
	return &Message{ID: id, Data: data, Attributes: attrs, ackFn: ack, nackFn: nack}
}

// Handler processes one delivery. Handlers run concurrently, one goroutine
// per message, bounded by the transport's flow control.
type Handler func(ctx context.Context, msg *Message)

type Publisher interface {
	// Publish sends data to topic and returns the transport message id.
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

type Subscriber interface {
	// Subscribe consumes topic until ctx is done, invoking h for every
	// delivery. It returns after in-flight handlers have drained.
	Subscribe(ctx context.Context, topic string, h Handler) error
}
