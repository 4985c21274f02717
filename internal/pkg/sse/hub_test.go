package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("user-1")
	defer cleanup()

	hub.Publish("user-1", Event{Event: EventNotification, Data: "hello"})

	select {
	case ev := <-ch:
		assert.Equal(t, EventNotification, ev.Event)
		assert.Equal(t, "user-1", ev.Channel)
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, "hello", ev.Data)
	default:
		t.Fatal("expected an event")
	}
}

func TestHub_PublishIgnoresOtherChannels(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("user-1")
	defer cleanup()

	hub.Publish("user-2", Event{Event: EventNotification})

	assert.Len(t, ch, 0)
}

func TestHub_InvalidateManagementReachesAdminConnections(t *testing.T) {
	hub := NewHub()
	adminCh, adminCleanup := hub.Subscribe("admin-1", AdminChannel)
	defer adminCleanup()
	staffCh, staffCleanup := hub.Subscribe("staff-1")
	defer staffCleanup()

	hub.InvalidateManagement("staff-hours-management")

	require.Len(t, adminCh, 1)
	ev := <-adminCh
	assert.Equal(t, EventInvalidate, ev.Event)
	assert.Equal(t, InvalidatePayload{Keys: []string{"staff-hours-management"}}, ev.Data)
	assert.Len(t, staffCh, 0)
}

func TestHub_InvalidateWithoutKeysIsNoop(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("user-1")
	defer cleanup()

	hub.Invalidate([]string{"user-1"})

	assert.Len(t, ch, 0)
}

func TestHub_CleanupRemovesEveryChannel(t *testing.T) {
	hub := NewHub()
	_, cleanup := hub.Subscribe("admin-1", AdminChannel)

	assert.Equal(t, 1, hub.SubscriberCount("admin-1"))
	assert.Equal(t, 1, hub.SubscriberCount(AdminChannel))
	assert.Equal(t, 1, hub.TotalSubscribers())

	cleanup()
	cleanup()

	assert.Equal(t, 0, hub.SubscriberCount("admin-1"))
	assert.Equal(t, 0, hub.SubscriberCount(AdminChannel))
	assert.Equal(t, 0, hub.TotalSubscribers())
}

func TestHub_FullBufferDropsEvents(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("user-1")
	defer cleanup()

	for i := 0; i < 15; i++ {
		hub.Publish("user-1", Event{Event: EventNotification})
	}

	assert.Len(t, ch, 10)
}
