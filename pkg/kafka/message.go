package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is a Kafka message with metadata.
type Message struct {
	Key       string            // partition key, e.g. booking reference
	Value     []byte            // JSON-encoded payload
	Headers   map[string]string
	Timestamp time.Time
}

// Header keys stamped on every published event.
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderSchemaVersion = "schema-version"
	HeaderSource        = "source"
)

// MessageBuilder provides a fluent interface for building messages.
type MessageBuilder struct {
	msg Message
	err error
}

func NewMessage(eventType, source string) *MessageBuilder {
	return &MessageBuilder{
		msg: Message{
			Headers: map[string]string{
				HeaderEventID:       uuid.New().String(),
				HeaderEventType:     eventType,
				HeaderSchemaVersion: "1",
				HeaderSource:        source,
			},
			Timestamp: time.Now().UTC(),
		},
	}
}

func (b *MessageBuilder) WithKey(key string) *MessageBuilder {
	b.msg.Key = key
	return b
}

func (b *MessageBuilder) WithHeader(key, value string) *MessageBuilder {
	b.msg.Headers[key] = value
	return b
}

// WithJSON marshals the payload; a marshal failure surfaces from Build.
func (b *MessageBuilder) WithJSON(payload any) *MessageBuilder {
	data, err := json.Marshal(payload)
	if err != nil {
		b.err = err
		return b
	}
	b.msg.Value = data
	return b
}

func (b *MessageBuilder) Build() (Message, error) {
	if b.err != nil {
		return Message{}, b.err
	}
	if b.msg.Key == "" {
		return Message{}, ErrEmptyKey
	}
	if len(b.msg.Value) == 0 {
		return Message{}, ErrEmptyValue
	}
	return b.msg, nil
}
