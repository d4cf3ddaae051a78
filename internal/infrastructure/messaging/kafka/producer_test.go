package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ScaffoldNet/internal/config"
	"github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	pkgerrors "github.com/turtacn/ScaffoldNet/pkg/errors"
)

type mockWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   int
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed++
	return nil
}

func TestNewProducer_Validation(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{}, nil, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	_, err = NewProducer(config.KafkaConfig{Brokers: []string{"k:9092"}, MaxRetries: -1}, nil, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	p, err := NewProducer(config.KafkaConfig{Brokers: []string{"k:9092"}}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestProducer_Publish(t *testing.T) {
	w := &mockWriter{}
	p := NewProducerWithWriter(w, nil, nil)

	err := p.Publish(context.Background(), &ProducerMessage{
		Topic:   "t",
		Key:     []byte("k"),
		Value:   []byte("v"),
		Headers: map[string]string{"h": "1"},
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)
	assert.Equal(t, "t", w.messages[0].Topic)
	assert.Equal(t, []kafka.Header{{Key: "h", Value: []byte("1")}}, w.messages[0].Headers)
	assert.False(t, w.messages[0].Time.IsZero())
	assert.Equal(t, int64(1), p.Sent())
}

func TestProducer_PublishValidation(t *testing.T) {
	p := NewProducerWithWriter(&mockWriter{}, nil, nil)
	ctx := context.Background()

	assert.Error(t, p.Publish(ctx, nil))
	assert.Error(t, p.Publish(ctx, &ProducerMessage{Topic: "t"}))
	assert.Error(t, p.Publish(ctx, &ProducerMessage{Topic: "t", Value: make([]byte, defaultMaxMessageBytes+1)}))
}

func TestProducer_PublishFailure(t *testing.T) {
	p := NewProducerWithWriter(&mockWriter{err: errors.New("broker down")}, nil, nil)
	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeExternalService))
	assert.Zero(t, p.Sent())
}

func TestProducer_Close(t *testing.T) {
	w := &mockWriter{}
	p := NewProducerWithWriter(w, nil, nil)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closed)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestNetworkEventPublisher(t *testing.T) {
	w := &mockWriter{}
	pub := NewNetworkEventPublisher(NewProducerWithWriter(w, nil, nil), "", "test")

	evt := scaffold.NetworkBuiltEvent{NetworkID: "n-1", NumNodes: 5, NumEdges: 7, Inputs: 1}
	require.NoError(t, pub.PublishNetworkBuilt(context.Background(), evt))
	require.Len(t, w.messages, 1)

	m := w.messages[0]
	assert.Equal(t, TopicNetworkCompleted, m.Topic)
	assert.Equal(t, []byte("n-1"), m.Key)

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(m.Value, &env))
	assert.Equal(t, EventNetworkCompleted, env.EventType)
	assert.Equal(t, "test", env.Source)

	var got scaffold.NetworkBuiltEvent
	require.NoError(t, env.DecodePayload(&got))
	assert.Equal(t, evt, got)
}

//Personal.AI order the ending
