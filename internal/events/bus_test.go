package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishReachesSubscribersInOrder(t *testing.T) {
	bus := NewInMemoryBus()
	var seen []string

	bus.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.TicketID)
		return nil
	})
	bus.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.TicketID)
		return nil
	})
	bus.Subscribe(EventTicketDeleted, func(context.Context, Event) error {
		seen = append(seen, "wrong")
		return nil
	})

	event := NewEvent(EventTicketCreated, "u1", time.Now())
	event.TicketID = "t1"
	assert.NoError(t, bus.Publish(context.Background(), event))
	assert.Equal(t, []string{"first:t1", "second:t1"}, seen)
}

func TestBus_HandlerErrorsDoNotStopOthers(t *testing.T) {
	bus := NewInMemoryBus()
	boom := errors.New("boom")
	called := false

	bus.Subscribe(EventUserLoggedIn, func(context.Context, Event) error { return boom })
	bus.Subscribe(EventUserLoggedIn, func(context.Context, Event) error {
		called = true
		return nil
	})

	err := bus.Publish(context.Background(), NewEvent(EventUserLoggedIn, "u1", time.Now()))
	assert.ErrorIs(t, err, boom)
	assert.True(t, called)
}

func TestNewEvent_AssignsUniqueIDs(t *testing.T) {
	a := NewEvent(EventUserSignedUp, "u1", time.Now())
	b := NewEvent(EventUserSignedUp, "u1", time.Now())
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
