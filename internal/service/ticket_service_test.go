package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/clock"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/repository"
	"github.com/spec-kit/ticket-desk/internal/storage"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util"
)

var testEpoch = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newTicketFixture(t *testing.T) (*TicketService, *recordingBus) {
	t.Helper()
	kv := storage.NewMemoryKV()
	clk := clock.Fake(testEpoch)
	bus := newRecordingBus()
	svc := NewTicketService(TicketDependencies{
		TicketRepo: repository.NewTicketRepository(kv, storage.NewKeys("").Tickets, clk, zap.NewNop()),
		Bus:        bus,
		Clock:      clk,
		Logger:     zap.NewNop(),
	})
	return svc, bus
}

func TestTicketService_CreateAndList(t *testing.T) {
	ctx := context.Background()
	svc, bus := newTicketFixture(t)

	ticket, err := svc.CreateTicket(ctx, "u1", domain.TicketInput{Title: "Printer broken"})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)

	list, err := svc.ListTickets(ctx, "u1", domain.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ticket.ID, list[0].ID)

	other, err := svc.ListTickets(ctx, "u2", domain.TicketFilter{})
	require.NoError(t, err)
	assert.Empty(t, other)

	require.Len(t, bus.received, 1)
	created := bus.received[0]
	assert.Equal(t, events.EventTicketCreated, created.Type)
	assert.Equal(t, ticket.ID, created.TicketID)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, testEpoch, created.Timestamp)
}

func TestTicketService_CreateInvalidPublishesNothing(t *testing.T) {
	svc, bus := newTicketFixture(t)

	_, err := svc.CreateTicket(context.Background(), "u1", domain.TicketInput{Title: "   "})
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Empty(t, bus.received)
}

func TestTicketService_UpdateRecordsTransition(t *testing.T) {
	ctx := context.Background()
	svc, bus := newTicketFixture(t)

	ticket, err := svc.CreateTicket(ctx, "u1", domain.TicketInput{Title: "VPN down"})
	require.NoError(t, err)

	updated, err := svc.UpdateTicket(ctx, ticket.ID, "u1", domain.TicketPatch{
		Status: ptr(domain.TicketStatusInProgress),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	assert.Equal(t, "VPN down", updated.Title)

	require.Len(t, bus.received, 2)
	payload, ok := bus.received[1].Payload.(events.TicketUpdatedPayload)
	require.True(t, ok)
	assert.Equal(t, []string{"status"}, payload.Fields)
	assert.Equal(t, domain.TicketStatusOpen, payload.OldStatus)
	assert.Equal(t, domain.TicketStatusInProgress, payload.NewStatus)
	assert.Empty(t, payload.OldPriority)
}

func TestTicketService_UpdateForeignTicketIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc, bus := newTicketFixture(t)

	ticket, err := svc.CreateTicket(ctx, "u1", domain.TicketInput{Title: "Mine"})
	require.NoError(t, err)

	_, err = svc.UpdateTicket(ctx, ticket.ID, "u2", domain.TicketPatch{Title: ptr("Stolen")})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Len(t, bus.received, 1)

	list, err := svc.ListTickets(ctx, "u1", domain.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, "Mine", list[0].Title)
}

func TestTicketService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, bus := newTicketFixture(t)

	ticket, err := svc.CreateTicket(ctx, "u1", domain.TicketInput{Title: "Old request"})
	require.NoError(t, err)

	deleted, err := svc.DeleteTicket(ctx, ticket.ID, "u2")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = svc.DeleteTicket(ctx, ticket.ID, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteTicket(ctx, ticket.ID, "u1")
	require.NoError(t, err)
	assert.False(t, deleted)

	require.Len(t, bus.received, 2)
	assert.Equal(t, events.EventTicketDeleted, bus.received[1].Type)
}

func TestTicketService_Stats(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTicketFixture(t)

	for _, in := range []domain.TicketInput{
		{Title: "a"},
		{Title: "b", Status: domain.TicketStatusInProgress},
		{Title: "c", Status: domain.TicketStatusClosed},
		{Title: "d", Status: domain.TicketStatusClosed},
	} {
		_, err := svc.CreateTicket(ctx, "u1", in)
		require.NoError(t, err)
	}
	_, err := svc.CreateTicket(ctx, "u2", domain.TicketInput{Title: "elsewhere"})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStats{Total: 4, Open: 1, InProgress: 1, Closed: 2}, stats)
}
