package notify_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/medtrack-engine/notify"
)

// captureSender records delivered events.
type captureSender struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *captureSender) Send(_ context.Context, e notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatcher_DeliversAllPublished(t *testing.T) {
	sender := &captureSender{}
	d := notify.NewDispatcher(sender, 2, 16, zerolog.Nop())
	d.Start()

	for i := 0; i < 10; i++ {
		ok := d.Publish(notify.NewEvent(notify.KindLowStock, "user-1", "low", "body", nil))
		assert.True(t, ok)
	}

	// Stop drains the queue before returning.
	d.Stop()
	assert.Equal(t, 10, sender.count())
}

func TestDispatcher_FullQueue_DropsWithoutBlocking(t *testing.T) {
	// GIVEN: A stopped dispatcher with a queue of 2
	// WHEN: Publishing 3 events
	// THEN: The third is dropped, Publish never blocks

	sender := &captureSender{}
	d := notify.NewDispatcher(sender, 1, 2, zerolog.Nop())

	assert.True(t, d.Publish(notify.NewEvent(notify.KindLowStock, "u", "t", "b", nil)))
	assert.True(t, d.Publish(notify.NewEvent(notify.KindLowStock, "u", "t", "b", nil)))
	assert.False(t, d.Publish(notify.NewEvent(notify.KindLowStock, "u", "t", "b", nil)))

	d.Start()
	d.Stop()
	assert.Equal(t, 2, sender.count())
}

func TestDispatcher_PublishAfterStop_Dropped(t *testing.T) {
	// The queue channel is closed on Stop; a late Publish must drop the
	// event instead of sending on it.

	sender := &captureSender{}
	d := notify.NewDispatcher(sender, 1, 4, zerolog.Nop())
	d.Start()
	d.Stop()

	assert.False(t, d.Publish(notify.NewEvent(notify.KindLowStock, "u", "t", "b", nil)))
	assert.Equal(t, 0, sender.count())
}

func TestNewEvent_StampsIdentity(t *testing.T) {
	e := notify.NewEvent(notify.KindLowStock, "user-1", "title", "body",
		map[string]string{"medicine": "Metformin"})

	require.NotEmpty(t, e.ID)
	assert.Equal(t, notify.KindLowStock, e.Kind)
	assert.Equal(t, "user-1", e.Recipient)
	assert.Equal(t, "Metformin", e.Meta["medicine"])
	assert.False(t, e.CreatedAt.IsZero())

	e2 := notify.NewEvent(notify.KindLowStock, "user-1", "title", "body", nil)
	assert.NotEqual(t, e.ID, e2.ID)
}
