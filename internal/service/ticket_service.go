package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/clock"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

// TicketService coordinates ticket workflows on behalf of an owner.
type TicketService struct {
	tickets repository.TicketRepository
	bus     events.Bus
	clock   clock.Clock
	logger  *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Bus        events.Bus
	Clock      clock.Clock
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		tickets: deps.TicketRepo,
		bus:     deps.Bus,
		clock:   deps.Clock,
		logger:  deps.Logger,
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// ListTickets returns the owner's tickets in creation order.
func (s *TicketService) ListTickets(ctx context.Context, userID string, filter domain.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID, filter)
}

// CreateTicket creates a ticket owned by userID.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input domain.TicketInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.Create(ctx, userID, input)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.EventTicketCreated, ticket.UserID, ticket.ID, events.TicketCreatedPayload{
		Title:    ticket.Title,
		Status:   ticket.Status,
		Priority: ticket.Priority,
	})
	return ticket, nil
}

// UpdateTicket applies patch to a ticket the user owns.
func (s *TicketService) UpdateTicket(ctx context.Context, id, userID string, patch domain.TicketPatch) (*domain.Ticket, error) {
	before, err := s.tickets.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	after, err := s.tickets.Update(ctx, id, userID, patch)
	if err != nil {
		return nil, err
	}

	payload := events.TicketUpdatedPayload{Fields: patchedFields(patch)}
	if before.Status != after.Status {
		payload.OldStatus, payload.NewStatus = before.Status, after.Status
	}
	if before.Priority != after.Priority {
		payload.OldPriority, payload.NewPriority = before.Priority, after.Priority
	}
	s.publishEvent(ctx, events.EventTicketUpdated, userID, after.ID, payload)
	return after, nil
}

// DeleteTicket removes a ticket the user owns. It reports false when there
// is no such ticket for this user.
func (s *TicketService) DeleteTicket(ctx context.Context, id, userID string) (bool, error) {
	deleted, err := s.tickets.Delete(ctx, id, userID)
	if err != nil || !deleted {
		return deleted, err
	}
	s.publishEvent(ctx, events.EventTicketDeleted, userID, id, nil)
	return true, nil
}

// Stats counts the owner's tickets by status.
func (s *TicketService) Stats(ctx context.Context, userID string) (domain.TicketStats, error) {
	tickets, err := s.tickets.ListByUser(ctx, userID, domain.TicketFilter{})
	if err != nil {
		return domain.TicketStats{}, err
	}
	stats := domain.TicketStats{Total: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case domain.TicketStatusOpen:
			stats.Open++
		case domain.TicketStatusInProgress:
			stats.InProgress++
		case domain.TicketStatusClosed:
			stats.Closed++
		}
	}
	return stats, nil
}

func (s *TicketService) publishEvent(ctx context.Context, eventType events.EventType, userID, ticketID string, payload interface{}) {
	if s.bus == nil {
		return
	}
	event := events.NewEvent(eventType, userID, s.clock.Now())
	event.TicketID = ticketID
	event.Payload = payload
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(eventType)),
			zap.String("ticket_id", ticketID),
			zap.Error(err))
	}
}

func patchedFields(patch domain.TicketPatch) []string {
	var fields []string
	if patch.Title != nil {
		fields = append(fields, "title")
	}
	if patch.Description != nil {
		fields = append(fields, "description")
	}
	if patch.Status != nil {
		fields = append(fields, "status")
	}
	if patch.Priority != nil {
		fields = append(fields, "priority")
	}
	return fields
}
