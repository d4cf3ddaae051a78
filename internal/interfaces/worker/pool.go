package worker

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"github.com/turtacn/ScaffoldNet/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

// Consumer is one member of the worker's consumer group.
type Consumer interface {
	Subscribe(topic string, handler kafka.MessageHandler)
	Start(ctx context.Context) error
	Stats() kafka.ConsumerStats
	Close() error
}

// ConsumerFactory creates a group member.
type ConsumerFactory func() (Consumer, error)

// Pool runs several consumers of the same group so that partitions of the
// request topic are processed in parallel.
type Pool struct {
	factory ConsumerFactory
	topic   string
	handler kafka.MessageHandler
	size    int
	logger  logging.Logger

	mu        sync.Mutex
	consumers []Consumer
}

// NewPool creates a pool of size consumers subscribed to topic.
func NewPool(factory ConsumerFactory, topic string, handler kafka.MessageHandler, size int, logger logging.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Pool{factory: factory, topic: topic, handler: handler, size: size, logger: logger}
}

// Start creates and starts every consumer.  If one fails, the ones already
// started are closed.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.consumers) > 0 {
		return errors.New(errors.ErrCodeConflict, "worker pool already started")
	}

	for i := 0; i < p.size; i++ {
		c, err := p.factory()
		if err == nil {
			c.Subscribe(p.topic, p.handler)
			if err = c.Start(ctx); err != nil {
				_ = c.Close()
			}
		}
		if err != nil {
			for _, started := range p.consumers {
				_ = started.Close()
			}
			p.consumers = nil
			return errors.Wrap(err, errors.ErrCodeExternalService, "failed to start worker consumer")
		}
		p.consumers = append(p.consumers, c)
	}
	p.logger.Info("worker pool started",
		logging.Int("consumers", p.size),
		logging.String("topic", p.topic))
	return nil
}

// Stats sums the counters of all consumers.
func (p *Pool) Stats() kafka.ConsumerStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	var total kafka.ConsumerStats
	for _, c := range p.consumers {
		s := c.Stats()
		total.Consumed += s.Consumed
		total.Processed += s.Processed
		total.Failed += s.Failed
		total.Retried += s.Retried
		total.DeadLettered += s.DeadLettered
	}
	return total
}

// Close stops every consumer, waiting for in-flight messages.
func (p *Pool) Close() error {
	p.mu.Lock()
	consumers := p.consumers
	p.consumers = nil
	p.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, len(consumers))
	for i, c := range consumers {
		wg.Add(1)
		go func(i int, c Consumer) {
			defer wg.Done()
			errs[i] = c.Close()
		}(i, c)
	}
	wg.Wait()
	return multierr.Combine(errs...)
}

//Personal.AI order the ending
