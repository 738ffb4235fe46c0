package publisher

import (
	"context"
	"sync"
	"time"

	audit "clinicdesk/pkg/platform/audit"
)

// Publisher emits audit events to a Store. By default Emit persists
// synchronously; WithAsyncBuffer switches to a buffered channel drained by a
// single background worker, which keeps mutation latency flat under audit
// store slowness at the cost of losing buffered events on a crash.
type Publisher struct {
	store audit.Store

	inbox  chan audit.Event
	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, closed: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records one event. In async mode a full buffer falls back to a
// synchronous write rather than dropping the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		return p.store.Append(ctx, event)
	}
}

// List exposes the trail for a subject.
func (p *Publisher) List(ctx context.Context, subject string) ([]audit.Event, error) {
	return p.store.ListBySubject(ctx, subject)
}

// Close drains any buffered events and stops the worker. Safe to call more
// than once.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.closed)
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Best effort: a failing audit store must not wedge the worker.
		_ = p.store.Append(context.Background(), event)
	}
}
