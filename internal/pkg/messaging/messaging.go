package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrDestinationRequired is returned when the topic or subject is empty.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("messaging: client is closed")
)

// Messaging is a broker client owned by the application and closed on shutdown.
type Messaging interface {
	io.Closer
	Publisher
}

// Publisher publishes messages to a destination (topic/subject).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	Body []byte

	// Key is used by Kafka for partitioning.
	Key []byte

	// Headers are sent as message headers where the broker supports them and
	// as string attributes on Pub/Sub. NSQ drops them.
	Headers []Header
}

// Header is a key/value pair used for message headers.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries optional broker-specific publish metadata.
type PublishResult struct {
	// MessageID is the broker-assigned message ID, when the broker returns one.
	MessageID string
	Topic     string
	Timestamp time.Time
}

// Noop drops every message. It is used when event publishing is disabled.
type Noop struct{}

// Publish reports success without sending anything.
func (Noop) Publish(ctx context.Context, destination string, _ OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

func (Noop) Close() error { return nil }

func checkPublish(ctx context.Context, destination string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}
	return nil
}
