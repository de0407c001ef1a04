package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spec-kit/ticket-desk/internal/api/dto"
	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util"
)

// Client is a typed front for Dispatcher.
type Client struct {
	dispatcher *Dispatcher
}

// NewClient wraps d.
func NewClient(d *Dispatcher) *Client {
	return &Client{dispatcher: d}
}

// ListTickets calls GET /tickets with optional filters.
func (c *Client) ListTickets(ctx context.Context, filter domain.TicketFilter) ([]dto.TicketResponse, error) {
	query := url.Values{}
	if len(filter.Statuses) > 0 {
		parts := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			parts = append(parts, string(s))
		}
		query.Set("status", strings.Join(parts, ","))
	}
	if len(filter.Priorities) > 0 {
		parts := make([]string, 0, len(filter.Priorities))
		for _, p := range filter.Priorities {
			parts = append(parts, string(p))
		}
		query.Set("priority", strings.Join(parts, ","))
	}
	path := "/tickets"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return expect[[]dto.TicketResponse](c.do(ctx, "GET", path, nil))
}

// CreateTicket calls POST /tickets.
func (c *Client) CreateTicket(ctx context.Context, req dto.CreateTicketRequest) (dto.TicketResponse, error) {
	return expect[dto.TicketResponse](c.do(ctx, "POST", "/tickets", req))
}

// UpdateTicket calls PATCH /tickets/{id}.
func (c *Client) UpdateTicket(ctx context.Context, id string, req dto.UpdateTicketRequest) (dto.TicketResponse, error) {
	return expect[dto.TicketResponse](c.do(ctx, "PATCH", ticketPath(id), req))
}

// DeleteTicket calls DELETE /tickets/{id}.
func (c *Client) DeleteTicket(ctx context.Context, id string) (dto.MessageResponse, error) {
	return expect[dto.MessageResponse](c.do(ctx, "DELETE", ticketPath(id), nil))
}

// Stats calls GET /tickets/stats.
func (c *Client) Stats(ctx context.Context) (dto.StatsResponse, error) {
	return expect[dto.StatsResponse](c.do(ctx, "GET", "/tickets/stats", nil))
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	req := Request{Method: method, Path: path}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		req.Body = raw
	}
	return c.dispatcher.Dispatch(ctx, req)
}

func ticketPath(id string) string {
	return "/tickets/" + url.PathEscape(id)
}

func expect[T any](resp *Response, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	body, ok := resp.Body.(T)
	if !ok {
		return zero, apperrors.NewInternalError(fmt.Errorf("unexpected response body %T", resp.Body))
	}
	return body, nil
}
