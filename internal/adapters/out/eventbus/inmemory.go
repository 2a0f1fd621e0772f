// Package eventbus implements the event bus adapter.
package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/acoshift/neppage/internal/adapters/out/telemetry"
	"github.com/acoshift/neppage/internal/boundaries/out"
	"github.com/acoshift/neppage/internal/domain"
	"github.com/acoshift/neppage/internal/logging"
)

const (
	publishTimeout = 5 * time.Second
	handlerTimeout = 30 * time.Second
)

// InMemory implements the EventBus interface using a buffered channel.
// Events are dispatched one at a time in publish order.
type InMemory struct {
	handlers   []out.EventHandler
	eventChan  chan domain.Event
	done       chan struct{}
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	bufferSize int
	log        zerolog.Logger
	metrics    *telemetry.Metrics
}

// NewInMemory creates a new in-memory event bus.
func NewInMemory(bufferSize int, log zerolog.Logger) *InMemory {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &InMemory{
		handlers:   make([]out.EventHandler, 0),
		eventChan:  make(chan domain.Event, bufferSize),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		bufferSize: bufferSize,
		log: log.With().
			Str(logging.FieldLayer, "adapter").
			Str(logging.FieldAdapter, "eventbus").
			Logger(),
	}
}

// SetMetrics sets the telemetry metrics for the event bus.
// Must be called before Start().
func (bus *InMemory) SetMetrics(m *telemetry.Metrics) {
	bus.mu.Lock()
	bus.metrics = m
	bus.mu.Unlock()
}

// Publish publishes an event to the bus.
func (bus *InMemory) Publish(eventType domain.EventType, payload any) error {
	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      payload,
	}

	select {
	case bus.eventChan <- event:
		bus.log.Debug().
			Str("event_id", event.ID).
			Str(logging.FieldEvent, string(event.Type)).
			Msg("event published")
		return nil
	case <-bus.ctx.Done():
		return fmt.Errorf("event bus is stopped")
	case <-time.After(publishTimeout):
		bus.log.Error().
			Str("event_id", event.ID).
			Str(logging.FieldEvent, string(event.Type)).
			Msg("event channel is full, dropping event")

		if bus.metrics != nil {
			bus.metrics.EventsDropped.Add(context.Background(), 1, metric.WithAttributes(
				attribute.String("event_type", string(event.Type)),
			))
		}
		return fmt.Errorf("event channel is full, dropping event %s", event.ID)
	}
}

// Subscribe adds an event handler to the bus.
func (bus *InMemory) Subscribe(handler out.EventHandler) error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.handlers = append(bus.handlers, handler)
	bus.log.Debug().
		Str(logging.FieldHandler, fmt.Sprintf("%T", handler)).
		Int("total_handlers", len(bus.handlers)).
		Msg("event handler subscribed")

	return nil
}

// Unsubscribe removes an event handler from the bus.
func (bus *InMemory) Unsubscribe(handler out.EventHandler) error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for i, h := range bus.handlers {
		if h == handler {
			bus.handlers = append(bus.handlers[:i], bus.handlers[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("handler not found")
}

// Start starts the event bus processing loop.
func (bus *InMemory) Start() error {
	bus.log.Info().Int("buffer_size", bus.bufferSize).Msg("starting event bus")
	go bus.processEvents()
	return nil
}

// Stop stops the event bus.
func (bus *InMemory) Stop() error {
	bus.cancel()

	select {
	case <-bus.done:
		bus.log.Info().Msg("event bus stopped")
		return nil
	case <-time.After(publishTimeout):
		bus.log.Warn().Msg("event bus stop timeout")
		return fmt.Errorf("timeout waiting for event bus to stop")
	}
}

func (bus *InMemory) processEvents() {
	defer close(bus.done)

	for {
		select {
		case event := <-bus.eventChan:
			bus.handleEvent(event)
		case <-bus.ctx.Done():
			return
		}
	}
}

func (bus *InMemory) handleEvent(event domain.Event) {
	bus.mu.RLock()
	handlers := make([]out.EventHandler, len(bus.handlers))
	copy(handlers, bus.handlers)
	bus.mu.RUnlock()

	for _, h := range handlers {
		if !h.CanHandle(event.Type) {
			continue
		}

		start := time.Now()
		ctx, cancel := context.WithTimeout(logging.WithCtx(bus.ctx, bus.log), handlerTimeout)

		done := make(chan error, 1)
		go func() {
			done <- h.Handle(ctx, event)
		}()

		log := bus.log.With().
			Str("event_id", event.ID).
			Str(logging.FieldEvent, string(event.Type)).
			Str(logging.FieldHandler, fmt.Sprintf("%T", h)).
			Logger()

		select {
		case err := <-done:
			if err != nil {
				log.Error().Err(err).Msg("error handling event")
			} else {
				log.Debug().Dur(logging.FieldDuration, time.Since(start)).Msg("event handled")
				if bus.metrics != nil {
					bus.metrics.EventsProcessed.Add(context.Background(), 1, metric.WithAttributes(
						attribute.String("event_type", string(event.Type)),
					))
				}
			}
		case <-ctx.Done():
			log.Warn().Dur(logging.FieldDuration, time.Since(start)).Msg("handler timed out")
		}
		cancel()
	}
}

var _ out.EventBus = (*InMemory)(nil)
