// Package rest is the REST-shaped boundary the UI uses for ticket data.
// Requests never leave the process: a verb, a path and an optional JSON body
// go in, a status and a typed body come out.
package rest

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/service"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util"
)

// Request is a dispatched call. Path may carry a query string.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// Response is the outcome of a successful dispatch.
type Response struct {
	Status int
	Body   any
}

// Call is what a route handler sees after routing.
type Call struct {
	Method string
	Path   string
	Route  string
	Params map[string]string
	Query  url.Values
	Body   []byte

	handler HandlerFunc
}

// HandlerFunc serves a routed call.
type HandlerFunc func(ctx context.Context, call *Call) (*Response, error)

// unmatchedRoute labels calls no route accepted.
const unmatchedRoute = "unmatched"

type route struct {
	method   string
	pattern  string
	segments []string
	handler  HandlerFunc
}

func newRoute(method, pattern string, handler HandlerFunc) route {
	return route{
		method:   method,
		pattern:  pattern,
		segments: strings.Split(strings.Trim(pattern, "/"), "/"),
		handler:  handler,
	}
}

// match returns the path parameters when segments fit the pattern.
func (r route) match(segments []string) (map[string]string, bool) {
	if len(segments) != len(r.segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, want := range r.segments {
		if strings.HasPrefix(want, "{") && strings.HasSuffix(want, "}") {
			if segments[i] == "" {
				return nil, false
			}
			params[strings.Trim(want, "{}")] = segments[i]
			continue
		}
		if segments[i] != want {
			return nil, false
		}
	}
	return params, true
}

// RouteConfig bundles dependencies for the dispatcher.
type RouteConfig struct {
	Sessions SessionReader
	Tickets  *service.TicketService
	Logger   *zap.Logger
	Metrics  *observability.Metrics
}

// Dispatcher routes requests to ticket handlers behind the middleware chain.
type Dispatcher struct {
	routes []route
	chain  HandlerFunc
}

// NewDispatcher wires routes and middlewares.
func NewDispatcher(cfg RouteConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tickets := NewTicketsHandler(cfg.Tickets)

	d := &Dispatcher{
		routes: []route{
			newRoute("GET", "/tickets", tickets.ListTickets),
			newRoute("POST", "/tickets", tickets.CreateTicket),
			newRoute("GET", "/tickets/stats", tickets.Stats),
			newRoute("PATCH", "/tickets/{id}", tickets.UpdateTicket),
			newRoute("DELETE", "/tickets/{id}", tickets.DeleteTicket),
		},
	}
	d.chain = Chain(serveRoute,
		Recover(logger),
		RequestLogger(logger, cfg.Metrics),
		RequireSession(cfg.Sessions),
	)
	return d
}

// Dispatch serves req. Authentication is checked before the route is
// resolved, so an anonymous caller gets Unauthenticated for every path.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Response, error) {
	call := &Call{
		Method: strings.ToUpper(strings.TrimSpace(req.Method)),
		Path:   req.Path,
		Route:  unmatchedRoute,
		Body:   req.Body,
	}
	d.resolve(call)
	return d.chain(ctx, call)
}

func (d *Dispatcher) resolve(call *Call) {
	u, err := url.Parse(call.Path)
	if err != nil {
		return
	}
	call.Path = u.Path
	call.Query = u.Query()

	segments, ok := splitPath(u.EscapedPath())
	if !ok {
		return
	}
	for _, r := range d.routes {
		if r.method != call.Method {
			continue
		}
		if params, ok := r.match(segments); ok {
			call.Route = r.pattern
			call.Params = params
			call.handler = r.handler
			return
		}
	}
}

// splitPath decodes each segment and drops an optional leading /api.
func splitPath(escaped string) ([]string, bool) {
	trimmed := strings.Trim(escaped, "/")
	if trimmed == "" {
		return nil, true
	}
	raw := strings.Split(trimmed, "/")
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		decoded, err := url.PathUnescape(s)
		if err != nil {
			return nil, false
		}
		segments = append(segments, decoded)
	}
	if segments[0] == "api" {
		segments = segments[1:]
	}
	return segments, true
}

// serveRoute is the innermost handler: it runs the resolved route, or
// reports the call as unsupported.
func serveRoute(ctx context.Context, call *Call) (*Response, error) {
	if call.handler == nil {
		return nil, apperrors.NewUnsupportedRoute(call.Method, call.Path)
	}
	return call.handler(ctx, call)
}
