package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

// ErrNSQProducerAddrRequired is returned when the producer address is missing.
var ErrNSQProducerAddrRequired = errors.New("messaging: nsq producer address is required")

// NSQConfig configures the NSQ implementation.
type NSQConfig struct {
	// ProducerAddr is the nsqd TCP address.
	ProducerAddr string
	// Config overrides the default producer config.
	Config *nsq.Config
}

// NSQ publishes to NSQ topics. NSQ has no message headers; they are dropped.
type NSQ struct {
	producer *nsq.Producer

	mu     sync.RWMutex
	closed bool
}

// NewNSQ constructs an NSQ producer.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ProducerAddr == "" {
		return nil, ErrNSQProducerAddrRequired
	}

	pcfg := cfg.Config
	if pcfg == nil {
		pcfg = nsq.NewConfig()
	}

	producer, err := nsq.NewProducer(cfg.ProducerAddr, pcfg)
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
	}
	producer.SetLoggerLevel(nsq.LogLevelError)

	return &NSQ{producer: producer}, nil
}

// Close stops the producer.
func (n *NSQ) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.closed {
		n.closed = true
		n.producer.Stop()
	}
	return nil
}

// Publish sends msg.Body to an NSQ topic. go-nsq does not take a context, so
// cancellation is only checked before sending.
func (n *NSQ) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := checkPublish(ctx, destination); err != nil {
		return PublishResult{}, err
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return PublishResult{}, ErrClosed
	}

	if err := n.producer.Publish(destination, msg.Body); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nsq publish: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}
