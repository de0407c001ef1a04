package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/clock"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/storage"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util"
)

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestTicketRepo(t *testing.T) (TicketRepository, *clock.FakeClock, *storage.MemoryKV) {
	t.Helper()
	kv := storage.NewMemoryKV()
	clk := clock.Fake(testEpoch)
	return NewTicketRepository(kv, storage.NewKeys("").Tickets, clk, zap.NewNop()), clk, kv
}

func ptr[T any](v T) *T { return &v }

func TestTicketRepository_CreateRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTicketRepo(t)

	input := domain.TicketInput{
		Title:       "Printer broken",
		Description: "Third floor",
		Status:      domain.TicketStatusInProgress,
		Priority:    domain.TicketPriorityHigh,
	}
	created, err := repo.Create(ctx, "alice-id", input)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, testEpoch, created.CreatedAt)
	assert.Equal(t, "alice-id", created.UserID)

	list, err := repo.ListByUser(ctx, "alice-id", domain.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *created, list[0])
	assert.Equal(t, input.Title, list[0].Title)
	assert.Equal(t, input.Description, list[0].Description)
	assert.Equal(t, input.Status, list[0].Status)
	assert.Equal(t, input.Priority, list[0].Priority)
}

func TestTicketRepository_CreateDefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTicketRepo(t)

	created, err := repo.Create(ctx, "u1", domain.TicketInput{Title: "Wifi down"})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, created.Status)
	assert.Equal(t, domain.TicketPriorityMedium, created.Priority)

	_, err = repo.Create(ctx, "u1", domain.TicketInput{Title: "   "})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = repo.Create(ctx, "u1", domain.TicketInput{Title: "x", Status: "done"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = repo.Create(ctx, "u1", domain.TicketInput{Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = repo.Create(ctx, "", domain.TicketInput{Title: "x"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestTicketRepository_PaddedTitleRoundTrips(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTicketRepo(t)

	input := domain.TicketInput{Title: "  Wifi down  ", Description: " floor 2 "}
	created, err := repo.Create(ctx, "u1", input)
	require.NoError(t, err)
	assert.Equal(t, input.Title, created.Title)

	list, err := repo.ListByUser(ctx, "u1", domain.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, input.Title, list[0].Title)
	assert.Equal(t, input.Description, list[0].Description)

	updated, err := repo.Update(ctx, created.ID, "u1", domain.TicketPatch{Title: ptr(" Wifi back ")})
	require.NoError(t, err)
	assert.Equal(t, " Wifi back ", updated.Title)
}

func TestTicketRepository_ListIsCreationOrderedAndStable(t *testing.T) {
	ctx := context.Background()
	repo, clk, _ := newTestTicketRepo(t)

	for _, title := range []string{"first", "second", "third"} {
		_, err := repo.Create(ctx, "u1", domain.TicketInput{Title: title})
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}
	_, err := repo.Create(ctx, "u2", domain.TicketInput{Title: "other"})
	require.NoError(t, err)

	first, err := repo.ListByUser(ctx, "u1", domain.TicketFilter{})
	require.NoError(t, err)
	second, err := repo.ListByUser(ctx, "u1", domain.TicketFilter{})
	require.NoError(t, err)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, "first", first[0].Title)
	assert.Equal(t, "third", first[2].Title)
	assert.True(t, first[0].CreatedAt.Before(first[2].CreatedAt))

	// updating keeps position
	_, err = repo.Update(ctx, first[0].ID, "u1", domain.TicketPatch{Title: ptr("first, edited")})
	require.NoError(t, err)
	after, err := repo.ListByUser(ctx, "u1", domain.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, "first, edited", after[0].Title)
}

func TestTicketRepository_ListFilter(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTicketRepo(t)

	_, err := repo.Create(ctx, "u1", domain.TicketInput{Title: "a", Priority: domain.TicketPriorityHigh})
	require.NoError(t, err)
	_, err = repo.Create(ctx, "u1", domain.TicketInput{Title: "b", Status: domain.TicketStatusClosed})
	require.NoError(t, err)

	high, err := repo.ListByUser(ctx, "u1", domain.TicketFilter{Priorities: []domain.TicketPriority{domain.TicketPriorityHigh}})
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, "a", high[0].Title)

	closed, err := repo.ListByUser(ctx, "u1", domain.TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusClosed}})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, "b", closed[0].Title)
}

func TestTicketRepository_OwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTicketRepo(t)

	ticket, err := repo.Create(ctx, "alice", domain.TicketInput{Title: "Alice's"})
	require.NoError(t, err)

	bobs, err := repo.ListByUser(ctx, "bob", domain.TicketFilter{})
	require.NoError(t, err)
	assert.Empty(t, bobs)

	_, err = repo.GetForUser(ctx, ticket.ID, "bob")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = repo.Update(ctx, ticket.ID, "bob", domain.TicketPatch{Title: ptr("pwned")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	deleted, err := repo.Delete(ctx, ticket.ID, "bob")
	require.NoError(t, err)
	assert.False(t, deleted)

	// the not-owned error is indistinguishable from a missing ticket
	_, missingErr := repo.Update(ctx, "no-such-id", "bob", domain.TicketPatch{Title: ptr("x")})
	_, foreignErr := repo.Update(ctx, ticket.ID, "bob", domain.TicketPatch{Title: ptr("x")})
	assert.Equal(t, apperrors.CodeOf(missingErr), apperrors.CodeOf(foreignErr))

	unchanged, err := repo.GetForUser(ctx, ticket.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, *ticket, *unchanged)
}

func TestTicketRepository_UpdateMutableFieldsOnly(t *testing.T) {
	ctx := context.Background()
	repo, clk, _ := newTestTicketRepo(t)

	ticket, err := repo.Create(ctx, "u1", domain.TicketInput{Title: "Old", Description: "desc"})
	require.NoError(t, err)
	clk.Advance(time.Hour)

	updated, err := repo.Update(ctx, ticket.ID, "u1", domain.TicketPatch{
		Title:    ptr("New"),
		Status:   ptr(domain.TicketStatusClosed),
		Priority: ptr(domain.TicketPriorityLow),
	})
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, updated.ID)
	assert.Equal(t, ticket.UserID, updated.UserID)
	assert.Equal(t, ticket.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "desc", updated.Description)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)
	assert.Equal(t, domain.TicketPriorityLow, updated.Priority)

	cleared, err := repo.Update(ctx, ticket.ID, "u1", domain.TicketPatch{Description: ptr("")})
	require.NoError(t, err)
	assert.Empty(t, cleared.Description)
}

func TestTicketRepository_UpdateValidation(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTicketRepo(t)

	ticket, err := repo.Create(ctx, "u1", domain.TicketInput{Title: "Keep"})
	require.NoError(t, err)

	_, err = repo.Update(ctx, ticket.ID, "u1", domain.TicketPatch{Title: ptr(" ")})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, err = repo.Update(ctx, ticket.ID, "u1", domain.TicketPatch{Status: ptr(domain.TicketStatus("resolved"))})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	stored, err := repo.GetForUser(ctx, ticket.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Keep", stored.Title)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)
}

func TestTicketRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTicketRepo(t)

	a, err := repo.Create(ctx, "u1", domain.TicketInput{Title: "a"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, "u1", domain.TicketInput{Title: "b"})
	require.NoError(t, err)
	c, err := repo.Create(ctx, "u1", domain.TicketInput{Title: "c"})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, b.ID, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)

	again, err := repo.Delete(ctx, b.ID, "u1")
	require.NoError(t, err)
	assert.False(t, again)

	list, err := repo.ListByUser(ctx, "u1", domain.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, c.ID, list[1].ID)
}

func TestTicketRepository_PersistedShape(t *testing.T) {
	ctx := context.Background()
	repo, _, kv := newTestTicketRepo(t)

	_, err := repo.Create(ctx, "u1", domain.TicketInput{Title: "shape"})
	require.NoError(t, err)

	raw, err := kv.Get(ctx, storage.NewKeys("").Tickets)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"userId":"u1"`)
	assert.Contains(t, string(raw), `"createdAt":"2026-03-01T09:00:00Z"`)
	assert.Contains(t, string(raw), `"status":"open"`)
	assert.Contains(t, string(raw), `"priority":"medium"`)
}
