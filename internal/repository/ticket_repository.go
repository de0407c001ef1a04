package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/clock"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/storage"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util"
)

// TicketRepository encapsulates ticket persistence. Every lookup is scoped
// to the calling user: a ticket owned by someone else is reported exactly
// like a missing one.
type TicketRepository interface {
	// ListByUser returns the user's tickets in creation order.
	ListByUser(ctx context.Context, userID string, filter domain.TicketFilter) ([]domain.Ticket, error)
	GetForUser(ctx context.Context, id, userID string) (*domain.Ticket, error)
	Create(ctx context.Context, userID string, input domain.TicketInput) (*domain.Ticket, error)
	Update(ctx context.Context, id, userID string, patch domain.TicketPatch) (*domain.Ticket, error)
	// Delete reports false when the ticket is missing or not owned.
	Delete(ctx context.Context, id, userID string) (bool, error)
}

type ticketRepository struct {
	mu      sync.Mutex
	tickets *storage.Collection[domain.Ticket]
	clock   clock.Clock
}

// NewTicketRepository returns a repository over the tickets collection at key.
func NewTicketRepository(kv storage.KV, key string, clk clock.Clock, logger *zap.Logger) TicketRepository {
	if clk == nil {
		clk = clock.Real()
	}
	return &ticketRepository{
		tickets: storage.NewCollection[domain.Ticket](kv, key, logger),
		clock:   clk,
	}
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID string, filter domain.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := r.tickets.Read(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if ticket.UserID == userID && filter.Matches(ticket) {
			result = append(result, ticket)
		}
	}
	return result, nil
}

func (r *ticketRepository) GetForUser(ctx context.Context, id, userID string) (*domain.Ticket, error) {
	tickets, err := r.tickets.Read(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOwned(tickets, id, userID)
	if idx < 0 {
		return nil, ticketNotFound(id)
	}
	ticket := tickets[idx]
	return &ticket, nil
}

func (r *ticketRepository) Create(ctx context.Context, userID string, input domain.TicketInput) (*domain.Ticket, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	ticket := domain.Ticket{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusOpen
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if err := validateTicket(ticket); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tickets, err := r.tickets.Read(ctx)
	if err != nil {
		return nil, err
	}
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = r.clock.Now()

	if err := r.tickets.Write(ctx, append(tickets, ticket)); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Update(ctx context.Context, id, userID string, patch domain.TicketPatch) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tickets, err := r.tickets.Read(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOwned(tickets, id, userID)
	if idx < 0 {
		return nil, ticketNotFound(id)
	}

	updated := tickets[idx]
	patch.Apply(&updated)
	if err := validateTicket(updated); err != nil {
		return nil, err
	}

	tickets[idx] = updated
	if err := r.tickets.Write(ctx, tickets); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tickets, err := r.tickets.Read(ctx)
	if err != nil {
		return false, err
	}
	idx := indexOwned(tickets, id, userID)
	if idx < 0 {
		return false, nil
	}

	remaining := append(tickets[:idx:idx], tickets[idx+1:]...)
	if err := r.tickets.Write(ctx, remaining); err != nil {
		return false, err
	}
	return true, nil
}

func indexOwned(tickets []domain.Ticket, id, userID string) int {
	if id == "" || userID == "" {
		return -1
	}
	for i := range tickets {
		if tickets[i].ID == id {
			if tickets[i].UserID != userID {
				return -1
			}
			return i
		}
	}
	return -1
}

func ticketNotFound(id string) error {
	return apperrors.NewNotFound("ticket", map[string]any{"id": id})
}

func validateTicket(t domain.Ticket) error {
	details := map[string]any{}
	// a blank title is rejected but a padded one is stored as given
	if strings.TrimSpace(t.Title) == "" {
		details["title"] = "required"
	}
	if !t.Status.Valid() {
		details["status"] = "must be one of open, in_progress, closed"
	}
	if !t.Priority.Valid() {
		details["priority"] = "must be one of low, medium, high"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket", details)
	}
	return nil
}
