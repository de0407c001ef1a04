package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util"
)

// CreateTicketRequest is the POST /tickets body. Ownership and identity
// fields are not part of it; any such keys in the payload are ignored.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Status      domain.TicketStatus   `json:"status,omitempty"`
	Priority    domain.TicketPriority `json:"priority,omitempty"`
}

// Validate checks the body before it reaches the repository. Empty status
// and priority are allowed and take their defaults.
func (r CreateTicketRequest) Validate() error {
	details := map[string]any{}
	if strings.TrimSpace(r.Title) == "" {
		details["title"] = "required"
	}
	if r.Status != "" && !r.Status.Valid() {
		details["status"] = "must be one of open, in_progress, closed"
	}
	if r.Priority != "" && !r.Priority.Valid() {
		details["priority"] = "must be one of low, medium, high"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket", details)
	}
	return nil
}

// Input converts the request for the ticket service.
func (r CreateTicketRequest) Input() domain.TicketInput {
	return domain.TicketInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
	}
}

// UpdateTicketRequest is the PATCH /tickets/{id} body. Nil fields are left
// unchanged.
type UpdateTicketRequest struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	Status      *domain.TicketStatus   `json:"status,omitempty"`
	Priority    *domain.TicketPriority `json:"priority,omitempty"`
}

func (r UpdateTicketRequest) Validate() error {
	details := map[string]any{}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		details["title"] = "must not be blank"
	}
	if r.Status != nil && !r.Status.Valid() {
		details["status"] = "must be one of open, in_progress, closed"
	}
	if r.Priority != nil && !r.Priority.Valid() {
		details["priority"] = "must be one of low, medium, high"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket update", details)
	}
	return nil
}

// Patch converts the request for the ticket service.
func (r UpdateTicketRequest) Patch() domain.TicketPatch {
	return domain.TicketPatch{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
	}
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID          string                `json:"id"`
	UserID      string                `json:"userId"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	CreatedAt   time.Time             `json:"createdAt"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
	}
}

// NewTicketList maps a slice of tickets, never returning nil.
func NewTicketList(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatsResponse is the GET /tickets/stats body.
type StatsResponse struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Closed     int `json:"closed"`
}

// NewStatsResponse maps ticket counters.
func NewStatsResponse(s domain.TicketStats) StatsResponse {
	return StatsResponse{Total: s.Total, Open: s.Open, InProgress: s.InProgress, Closed: s.Closed}
}
