/*
Package notify provides best-effort, non-blocking notification dispatch.

PURPOSE:
  User-facing signals (low stock, and whatever else grows here) must never
  block or fail the write path that produced them. Events are handed to a
  bounded queue drained by a fixed worker pool; delivery failures are
  logged, never propagated.

CONTRACT:
  - Publish never blocks: a full queue drops the event and logs a warning
  - Delivery is at-most-best-effort: no retries, no ordering guarantee
  - Stop drains in-flight work before returning

SENDERS:
  Sender is the channel boundary (push/email/whatever lives behind it).
  LogSender is the default no-op-ish sender that just logs the event;
  tests use a capturing sender.
*/
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// =============================================================================
// EVENT
// =============================================================================

type Kind string

const (
	KindLowStock Kind = "low_stock"
)

// Event is an opaque message bound for one recipient. Meta carries
// channel-agnostic payload fields (medicine name, owner display name, ...).
type Event struct {
	ID        string
	Kind      Kind
	Recipient string
	Title     string
	Body      string
	Meta      map[string]string
	CreatedAt time.Time
}

// NewEvent stamps identity and creation time onto a payload.
func NewEvent(kind Kind, recipient, title, body string, meta map[string]string) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Recipient: recipient,
		Title:     title,
		Body:      body,
		Meta:      meta,
		CreatedAt: time.Now().UTC(),
	}
}

// =============================================================================
// SENDER - Delivery channel boundary
// =============================================================================

type Sender interface {
	Send(ctx context.Context, e Event) error
}

// LogSender logs events instead of delivering them. Default wiring until a
// real channel (push/email) is attached.
type LogSender struct {
	Log zerolog.Logger
}

func (s *LogSender) Send(_ context.Context, e Event) error {
	s.Log.Info().
		Str("event_id", e.ID).
		Str("kind", string(e.Kind)).
		Str("recipient", e.Recipient).
		Str("title", e.Title).
		Msg("notification")
	return nil
}

// =============================================================================
// DISPATCHER - Bounded queue + fixed worker pool
// =============================================================================

type Dispatcher struct {
	sender  Sender
	log     zerolog.Logger
	queue   chan Event
	workers int

	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	stopped bool
}

// NewDispatcher creates a dispatcher with the given pool size and queue
// capacity. Both must be positive.
func NewDispatcher(sender Sender, workers, queueSize int, log zerolog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		sender:  sender,
		log:     log,
		queue:   make(chan Event, queueSize),
		workers: workers,
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	d.log.Info().Int("workers", d.workers).Int("queue", cap(d.queue)).Msg("notification dispatcher started")
}

// Stop closes the queue and waits for in-flight deliveries. After Stop,
// Publish drops every event.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started || d.stopped {
		return
	}
	d.started = false
	d.stopped = true

	close(d.queue)
	d.wg.Wait()
	d.log.Info().Msg("notification dispatcher stopped")
}

// Publish enqueues an event without blocking. Returns false if the event
// was dropped because the queue is full or the dispatcher has stopped.
func (d *Dispatcher) Publish(e Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		d.log.Warn().
			Str("event_id", e.ID).
			Str("kind", string(e.Kind)).
			Str("recipient", e.Recipient).
			Msg("dispatcher stopped, event dropped")
		return false
	}

	select {
	case d.queue <- e:
		return true
	default:
		d.log.Warn().
			Str("event_id", e.ID).
			Str("kind", string(e.Kind)).
			Str("recipient", e.Recipient).
			Msg("notification queue full, event dropped")
		return false
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for e := range d.queue {
		// Per-delivery timeout keeps a stuck channel from wedging a worker.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := d.sender.Send(ctx, e); err != nil {
			d.log.Error().Err(err).
				Str("event_id", e.ID).
				Str("kind", string(e.Kind)).
				Str("recipient", e.Recipient).
				Msg("notification delivery failed")
		}
		cancel()
	}
}
