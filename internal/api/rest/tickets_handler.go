package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spec-kit/ticket-desk/internal/api/dto"
	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/service"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util"
)

// DeletedMessage confirms a successful DELETE.
const DeletedMessage = "Ticket deleted successfully"

// TicketsHandler serves the /tickets routes for the current user.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(ctx context.Context, call *Call) (*Response, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	tickets, err := h.service.ListTickets(ctx, principal.ID, parseTicketQuery(call))
	if err != nil {
		return nil, err
	}
	return &Response{Status: http.StatusOK, Body: dto.NewTicketList(tickets)}, nil
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(ctx context.Context, call *Call) (*Response, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	var req dto.CreateTicketRequest
	if err := decodeBody(call.Body, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ticket, err := h.service.CreateTicket(ctx, principal.ID, req.Input())
	if err != nil {
		return nil, err
	}
	return &Response{Status: http.StatusCreated, Body: dto.NewTicketResponse(ticket)}, nil
}

// UpdateTicket PATCH /tickets/{id}.
func (h *TicketsHandler) UpdateTicket(ctx context.Context, call *Call) (*Response, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	var req dto.UpdateTicketRequest
	if err := decodeBody(call.Body, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ticket, err := h.service.UpdateTicket(ctx, call.Params["id"], principal.ID, req.Patch())
	if err != nil {
		return nil, err
	}
	return &Response{Status: http.StatusOK, Body: dto.NewTicketResponse(ticket)}, nil
}

// DeleteTicket DELETE /tickets/{id}.
func (h *TicketsHandler) DeleteTicket(ctx context.Context, call *Call) (*Response, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	id := call.Params["id"]
	deleted, err := h.service.DeleteTicket(ctx, id, principal.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return &Response{Status: http.StatusOK, Body: dto.MessageResponse{Message: DeletedMessage}}, nil
}

// Stats GET /tickets/stats.
func (h *TicketsHandler) Stats(ctx context.Context, _ *Call) (*Response, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	stats, err := h.service.Stats(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	return &Response{Status: http.StatusOK, Body: dto.NewStatsResponse(stats)}, nil
}

// decodeBody reads a JSON object. An empty body decodes as {} and unknown
// keys are ignored.
func decodeBody(body []byte, v any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"body": err.Error()})
	}
	return nil
}

func parseTicketQuery(call *Call) domain.TicketFilter {
	filter := domain.TicketFilter{}
	for _, part := range splitList(call.Query.Get("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(part))
	}
	for _, part := range splitList(call.Query.Get("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(part))
	}
	return filter
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
