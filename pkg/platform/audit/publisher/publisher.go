// Package publisher emits audit events to a store and, optionally, to an
// external sink such as Kafka.
//
// The publisher runs in one of two modes. In sync mode (the default) Emit
// blocks until the store write succeeds and returns its error, which gives
// compliance events fail-closed semantics. With WithAsyncBuffer, Emit
// enqueues and returns immediately; a background worker drains the buffer
// and Close blocks until everything buffered has been delivered. When the
// buffer is full the event is dropped and Emit reports ErrBufferFull so
// callers never stall on audit.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "registrar/pkg/domain"
	audit "registrar/pkg/platform/audit"
	"registrar/pkg/platform/audit/worker"
)

// ErrBufferFull is returned by Emit in async mode when the buffer has no
// room. The event is dropped, never blocked on.
var ErrBufferFull = errors.New("audit buffer full")

// Sink mirrors events to an external system. Sink failures are logged and
// counted but never fail the emitting operation; the store is the local
// source of truth.
type Sink interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Publisher struct {
	store   audit.Store
	sink    Sink
	sampler *Sampler
	metrics *Metrics
	logger  *slog.Logger

	inbox chan audit.Event
	wg    sync.WaitGroup
	once  sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given
// buffer capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan audit.Event, size)
		}
	}
}

// WithSink mirrors every stored event to the sink.
func WithSink(sink Sink) Option {
	return func(p *Publisher) { p.sink = sink }
}

// WithSampler drops a fraction of operations-category events before they
// reach the store. Compliance and security events are never sampled.
func WithSampler(s *Sampler) Option {
	return func(p *Publisher) { p.sampler = s }
}

// WithMetrics enables Prometheus counters for emitted, sampled and dropped
// events.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithLogger sets the logger for delivery failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}

	if p.inbox != nil {
		w := worker.NewWorker(appenderFunc(p.deliver), p.inbox, p.logger)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			// Drain is governed by channel close, not cancellation.
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit records an audit event. The category is derived from the action and
// a zero timestamp is stamped with the current time, so call sites only
// fill in what they know.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.sampler != nil && event.Category == audit.CategoryOperations && !p.sampler.ShouldSample(event.Action) {
		if p.metrics != nil {
			p.metrics.IncSampled()
		}
		return nil
	}

	if p.inbox == nil {
		if err := p.deliver(ctx, event); err != nil {
			return err
		}
		if p.metrics != nil {
			p.metrics.IncEmitted(event.Category)
		}
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case p.inbox <- event:
		if p.metrics != nil {
			p.metrics.IncEmitted(event.Category)
		}
		return nil
	default:
		if p.metrics != nil {
			p.metrics.IncDropped()
		}
		return ErrBufferFull
	}
}

// List returns the stored events for a citizen application reference.
func (p *Publisher) List(ctx context.Context, ref id.Reference) ([]audit.Event, error) {
	return p.store.ListByReference(ctx, ref)
}

// Close drains the async buffer and blocks until delivery finishes. Safe to
// call more than once. In sync mode it is a no-op.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
		}
		p.wg.Wait()
	})
}

// deliver writes the event to the store and mirrors it to the sink. Store
// errors propagate; sink errors do not.
func (p *Publisher) deliver(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		return err
	}
	if p.sink != nil {
		if err := p.sink.Emit(ctx, event); err != nil {
			if p.metrics != nil {
				p.metrics.IncSinkFailures()
			}
			p.logger.Error("mirror audit event to sink",
				"action", event.Action,
				"error", err,
			)
		}
	}
	return nil
}

type appenderFunc func(ctx context.Context, event audit.Event) error

func (f appenderFunc) Append(ctx context.Context, event audit.Event) error {
	return f(ctx, event)
}
