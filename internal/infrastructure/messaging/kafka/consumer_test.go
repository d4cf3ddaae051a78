package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ScaffoldNet/internal/config"
	pkgerrors "github.com/turtacn/ScaffoldNet/pkg/errors"
)

// queueReader serves queued messages, then blocks until cancelled.
type queueReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *queueReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *queueReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *queueReader) Close() error {
	r.closed = true
	return nil
}

func (r *queueReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type capturePublisher struct {
	mu   sync.Mutex
	msgs []*ProducerMessage
}

func (p *capturePublisher) Publish(_ context.Context, msg *ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestNewConsumer_Validation(t *testing.T) {
	topics := []string{TopicNetworkRequested}
	_, err := NewConsumer(config.KafkaConfig{}, topics, nil, nil, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	_, err = NewConsumer(config.KafkaConfig{Brokers: []string{"k:9092"}}, topics, nil, nil, nil)
	assert.Error(t, err)

	_, err = NewConsumer(config.KafkaConfig{Brokers: []string{"k:9092"}, ConsumerGroup: "g"}, nil, nil, nil, nil)
	assert.Error(t, err)

	_, err = NewConsumer(config.KafkaConfig{Brokers: []string{"k:9092"}, ConsumerGroup: "g", AutoOffsetReset: "middle"}, topics, nil, nil, nil)
	assert.Error(t, err)
}

func TestConsumer_ProcessesAndCommits(t *testing.T) {
	r := &queueReader{queue: []kafka.Message{
		{Topic: "jobs", Offset: 1, Value: []byte("a"), Headers: []kafka.Header{{Key: "k", Value: []byte("v")}}},
		{Topic: "other", Offset: 2, Value: []byte("b")},
	}}
	c := NewConsumerWithReader(r, nil, RetryConfig{}, nil, nil)

	var seen atomic.Value
	c.Subscribe("jobs", func(_ context.Context, msg *Message) error {
		seen.Store(msg)
		return nil
	})
	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)

	require.Eventually(t, func() bool { return r.commits() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	assert.True(t, r.closed)

	msg := seen.Load().(*Message)
	assert.Equal(t, "v", msg.Headers["k"])
	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Consumed)
	assert.Equal(t, int64(1), stats.Processed)
}

func TestConsumer_RetryThenSucceed(t *testing.T) {
	r := &queueReader{queue: []kafka.Message{{Topic: "jobs", Value: []byte("a")}}}
	c := NewConsumerWithReader(r, nil, RetryConfig{MaxRetries: 3, RetryBackoff: time.Millisecond}, nil, nil)

	var calls atomic.Int32
	c.Subscribe("jobs", func(context.Context, *Message) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return r.commits() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int64(2), c.Stats().Retried)
	assert.Equal(t, int64(1), c.Stats().Processed)
}

func TestConsumer_DeadLetter(t *testing.T) {
	r := &queueReader{queue: []kafka.Message{{
		Topic: "jobs", Offset: 42, Key: []byte("key"), Value: []byte("poison"),
	}}}
	dl := &capturePublisher{}
	c := NewConsumerWithReader(r, dl, RetryConfig{MaxRetries: 2, RetryBackoff: time.Millisecond, DeadLetter: true}, nil, nil)
	c.Subscribe("jobs", func(context.Context, *Message) error { return errors.New("bad payload") })

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return r.commits() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	require.Len(t, dl.msgs, 1)
	m := dl.msgs[0]
	assert.Equal(t, "jobs.dlq", m.Topic)
	assert.Equal(t, []byte("poison"), m.Value)
	assert.Equal(t, "jobs", m.Headers["original_topic"])
	assert.Equal(t, "42", m.Headers["original_offset"])
	assert.Equal(t, "bad payload", m.Headers["error_message"])

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.DeadLettered)
	assert.Equal(t, int64(2), stats.Retried)
}

func TestConsumer_CloseWithoutStart(t *testing.T) {
	r := &queueReader{}
	c := NewConsumerWithReader(r, nil, RetryConfig{}, nil, nil)
	require.NoError(t, c.Close())
	assert.True(t, r.closed)
}

//Personal.AI order the ending
