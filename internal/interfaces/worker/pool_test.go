package worker

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ScaffoldNet/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

type fakeConsumer struct {
	topic    string
	handler  kafka.MessageHandler
	startErr error
	closeErr error
	started  atomic.Bool
	closed   atomic.Bool
	stats    kafka.ConsumerStats
}

func (f *fakeConsumer) Subscribe(topic string, handler kafka.MessageHandler) {
	f.topic, f.handler = topic, handler
}

func (f *fakeConsumer) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started.Store(true)
	return nil
}

func (f *fakeConsumer) Stats() kafka.ConsumerStats { return f.stats }

func (f *fakeConsumer) Close() error {
	f.closed.Store(true)
	return f.closeErr
}

func TestPool_StartAndClose(t *testing.T) {
	var made []*fakeConsumer
	factory := func() (Consumer, error) {
		c := &fakeConsumer{stats: kafka.ConsumerStats{Consumed: 2, Processed: 1, Failed: 1}}
		made = append(made, c)
		return c, nil
	}
	handler := func(context.Context, *kafka.Message) error { return nil }

	p := NewPool(factory, "requests", handler, 3, nil)
	require.NoError(t, p.Start(context.Background()))
	require.Len(t, made, 3)
	for _, c := range made {
		assert.True(t, c.started.Load())
		assert.Equal(t, "requests", c.topic)
		assert.NotNil(t, c.handler)
	}

	stats := p.Stats()
	assert.EqualValues(t, 6, stats.Consumed)
	assert.EqualValues(t, 3, stats.Processed)
	assert.EqualValues(t, 3, stats.Failed)

	err := p.Start(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))

	require.NoError(t, p.Close())
	for _, c := range made {
		assert.True(t, c.closed.Load())
	}
	assert.Zero(t, p.Stats().Consumed)
}

func TestPool_StartFailureClosesStarted(t *testing.T) {
	var made []*fakeConsumer
	factory := func() (Consumer, error) {
		c := &fakeConsumer{}
		if len(made) == 1 {
			c.startErr = stderrors.New("broker unreachable")
		}
		made = append(made, c)
		return c, nil
	}

	p := NewPool(factory, "requests", nil, 3, nil)
	err := p.Start(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
	require.Len(t, made, 2)
	assert.True(t, made[0].closed.Load())
	assert.True(t, made[1].closed.Load())
}

func TestPool_FactoryError(t *testing.T) {
	p := NewPool(func() (Consumer, error) { return nil, stderrors.New("no brokers") }, "requests", nil, 0, nil)
	assert.Error(t, p.Start(context.Background()))
	assert.NoError(t, p.Close())
}

func TestPool_CloseCombinesErrors(t *testing.T) {
	factory := func() (Consumer, error) {
		return &fakeConsumer{closeErr: stderrors.New("close failed")}, nil
	}
	p := NewPool(factory, "requests", nil, 2, nil)
	require.NoError(t, p.Start(context.Background()))
	err := p.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close failed")
}

//Personal.AI order the ending
