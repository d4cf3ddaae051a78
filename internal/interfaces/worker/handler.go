// Package worker consumes network build requests from Kafka, builds them
// through the scaffold application service and announces the outcome on the
// completion topic.
package worker

import (
	"context"
	"sync"
	"time"

	appscaffold "github.com/turtacn/ScaffoldNet/internal/application/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/convert"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	dto "github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

const (
	// SourceWorker labels worker builds in metrics and completion events.
	SourceWorker = "worker"

	defaultHandlerTimeout = 5 * time.Minute
	eventSource           = "scaffoldnet-worker"

	// maxUnpublished bounds the completions kept for republishing.
	maxUnpublished = 1024
)

// EnvelopePublisher is the subset of the Kafka producer the handler uses.
type EnvelopePublisher interface {
	PublishEnvelope(ctx context.Context, topic, key string, env *kafka.EventEnvelope) error
}

// NetworkRequestHandler turns NetworkRequestedEvents into builds.
//
// Requests that can never succeed (bad SMILES, bad parameters, limits) are
// answered with a failed NetworkCompletedEvent and acknowledged.  Every other
// error is returned so the consumer retries the message and eventually moves
// it to the dead-letter topic.  A build whose completion event could not be
// published is remembered by request id, so the retry republishes it instead
// of saving a second network.
type NetworkRequestHandler struct {
	svc       appscaffold.Service
	publisher EnvelopePublisher
	topic     string
	timeout   time.Duration
	logger    logging.Logger

	mu          sync.Mutex
	unpublished map[string]dto.NetworkCompletedEvent
	order       []string
}

// HandlerOption configures a NetworkRequestHandler.
type HandlerOption func(*NetworkRequestHandler)

// WithCompletedTopic overrides the topic completion events go to.
func WithCompletedTopic(topic string) HandlerOption {
	return func(h *NetworkRequestHandler) {
		if topic != "" {
			h.topic = topic
		}
	}
}

// WithHandlerTimeout bounds a single build.
func WithHandlerTimeout(d time.Duration) HandlerOption {
	return func(h *NetworkRequestHandler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewNetworkRequestHandler creates a handler.  publisher may be nil, in which
// case outcomes are only logged.
func NewNetworkRequestHandler(svc appscaffold.Service, publisher EnvelopePublisher, logger logging.Logger, opts ...HandlerOption) *NetworkRequestHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	h := &NetworkRequestHandler{
		svc:       svc,
		publisher: publisher,
		topic:     kafka.TopicNetworkCompleted,
		timeout:   defaultHandlerTimeout,
		logger:    logger.Named("worker"),

		unpublished: make(map[string]dto.NetworkCompletedEvent),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle implements kafka.MessageHandler.
func (h *NetworkRequestHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	if env.EventType != kafka.EventNetworkRequested {
		h.logger.Warn("ignoring unexpected event type",
			logging.String("event_type", env.EventType),
			logging.String("event_id", env.EventID))
		return nil
	}

	var req dto.NetworkRequestedEvent
	if err := env.DecodePayload(&req); err != nil {
		return err
	}
	if req.RequestID == "" {
		req.RequestID = env.EventID
	}
	logger := h.logger.With(logging.String("request_id", req.RequestID))

	if evt, ok := h.pending(req.RequestID); ok {
		logger.Info("republishing completed network", logging.String("network_id", evt.NetworkID))
		return h.publishCompleted(ctx, env, evt)
	}

	buildCtx, cancel := context.WithTimeout(ctx, h.timeout)
	res, err := h.svc.BuildNetwork(buildCtx, &appscaffold.BuildNetworkInput{
		SMILES: req.SMILES,
		Params: convert.ParamsFromDTO(req.Params),
		Source: SourceWorker,
		Reuse:  req.Reuse,
	})
	cancel()

	if err != nil {
		if !Permanent(err) {
			logger.Warn("network build failed, will retry", logging.Err(err))
			return err
		}
		logger.Warn("network request rejected", logging.Err(err))
		return h.publish(ctx, env, dto.NetworkCompletedEvent{
			RequestID: req.RequestID,
			ErrorCode: string(errors.GetCode(err)),
			Error:     err.Error(),
		})
	}

	evt := dto.NetworkCompletedEvent{
		RequestID: req.RequestID,
		Source:    res.Source,
		Artifact:  res.Artifact,
	}
	if res.Record != nil {
		evt.NetworkID = res.Record.ID
		if res.Record.Network != nil {
			evt.NumNodes = len(res.Record.Network.Nodes)
			evt.NumEdges = len(res.Record.Network.Edges)
		}
	}
	logger.Info("network request completed",
		logging.String("network_id", evt.NetworkID),
		logging.String("source", evt.Source),
		logging.Int("nodes", evt.NumNodes),
		logging.Duration("duration", res.Duration))
	return h.publishCompleted(ctx, env, evt)
}

// publishCompleted publishes a successful build, keeping it for the next
// delivery of the request when publishing fails.
func (h *NetworkRequestHandler) publishCompleted(ctx context.Context, req *kafka.EventEnvelope, evt dto.NetworkCompletedEvent) error {
	if err := h.publish(ctx, req, evt); err != nil {
		h.remember(evt)
		return err
	}
	h.forget(evt.RequestID)
	return nil
}

func (h *NetworkRequestHandler) pending(requestID string) (dto.NetworkCompletedEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	evt, ok := h.unpublished[requestID]
	return evt, ok
}

func (h *NetworkRequestHandler) remember(evt dto.NetworkCompletedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.unpublished[evt.RequestID]; !ok {
		h.order = append(h.order, evt.RequestID)
	}
	h.unpublished[evt.RequestID] = evt
	for len(h.order) > maxUnpublished {
		delete(h.unpublished, h.order[0])
		h.order = h.order[1:]
	}
}

func (h *NetworkRequestHandler) forget(requestID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.unpublished[requestID]; !ok {
		return
	}
	delete(h.unpublished, requestID)
	for i, id := range h.order {
		if id == requestID {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

func (h *NetworkRequestHandler) publish(ctx context.Context, req *kafka.EventEnvelope, evt dto.NetworkCompletedEvent) error {
	if h.publisher == nil {
		return nil
	}
	out, err := kafka.NewEventEnvelope(kafka.EventNetworkCompleted, eventSource, evt)
	if err != nil {
		return err
	}
	out.TraceID = req.TraceID
	if out.TraceID == "" {
		out.TraceID = req.EventID
	}
	return h.publisher.PublishEnvelope(ctx, h.topic, evt.RequestID, out)
}

// Permanent reports whether retrying the request cannot change its outcome.
func Permanent(err error) bool {
	code := errors.GetCode(err)
	switch code {
	case errors.ErrCodeTimeout, errors.ErrCodeTooManyRequests:
		return false
	}
	return errors.IsClientError(code)
}

//Personal.AI order the ending
