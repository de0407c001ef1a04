package main

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/spec-kit/ticket-desk/internal/api/dto"
	"github.com/spec-kit/ticket-desk/internal/app"
	"github.com/spec-kit/ticket-desk/internal/domain"
)

type command struct {
	run func(ctx context.Context, a *app.App, args []string) (any, error)
}

var commands = map[string]command{
	"signup": {run: runSignup},
	"login":  {run: runLogin},
	"logout": {run: runLogout},
	"whoami": {run: runWhoami},
	"list":   {run: runList},
	"create": {run: runCreate},
	"update": {run: runUpdate},
	"delete": {run: runDelete},
	"stats":  {run: runStats},
	"health": {run: runHealth},
}

func credentials(name string, args []string) (dto.CredentialsRequest, error) {
	if len(args) != 2 {
		return dto.CredentialsRequest{}, usageError("usage: ticketctl %s <username> <password>", name)
	}
	return dto.CredentialsRequest{Username: args[0], Password: args[1]}, nil
}

func runSignup(ctx context.Context, a *app.App, args []string) (any, error) {
	req, err := credentials("signup", args)
	if err != nil {
		return nil, err
	}
	user, err := a.Sessions.Signup(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return dto.NewSessionResponse(user, true), nil
}

func runLogin(ctx context.Context, a *app.App, args []string) (any, error) {
	req, err := credentials("login", args)
	if err != nil {
		return nil, err
	}
	user, err := a.Sessions.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return dto.NewSessionResponse(user, true), nil
}

func runLogout(ctx context.Context, a *app.App, args []string) (any, error) {
	if len(args) != 0 {
		return nil, usageError("usage: ticketctl logout")
	}
	if err := a.Sessions.Logout(ctx); err != nil {
		return nil, err
	}
	return dto.NewSessionResponse(domain.SessionUser{}, false), nil
}

func runWhoami(_ context.Context, a *app.App, args []string) (any, error) {
	if len(args) != 0 {
		return nil, usageError("usage: ticketctl whoami")
	}
	return dto.NewSessionResponse(a.Sessions.CurrentUser()), nil
}

func runList(ctx context.Context, a *app.App, args []string) (any, error) {
	flagSet := newCommandFlags("list")
	status := flagSet.String("status", "", "comma-separated statuses")
	priority := flagSet.String("priority", "", "comma-separated priorities")
	if err := parseCommandFlags(flagSet, args, 0); err != nil {
		return nil, err
	}

	var filter domain.TicketFilter
	for _, s := range splitCSV(*status) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(s))
	}
	for _, p := range splitCSV(*priority) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(p))
	}
	return a.Client.ListTickets(ctx, filter)
}

func runCreate(ctx context.Context, a *app.App, args []string) (any, error) {
	flagSet := newCommandFlags("create")
	var req dto.CreateTicketRequest
	flagSet.StringVar(&req.Title, "title", "", "ticket title")
	flagSet.StringVar(&req.Description, "description", "", "ticket description")
	status := flagSet.String("status", "", "open, in_progress or closed")
	priority := flagSet.String("priority", "", "low, medium or high")
	if err := parseCommandFlags(flagSet, args, 0); err != nil {
		return nil, err
	}
	req.Status = domain.TicketStatus(*status)
	req.Priority = domain.TicketPriority(*priority)
	return a.Client.CreateTicket(ctx, req)
}

func runUpdate(ctx context.Context, a *app.App, args []string) (any, error) {
	flagSet := newCommandFlags("update")
	title := flagSet.String("title", "", "new title")
	description := flagSet.String("description", "", "new description")
	status := flagSet.String("status", "", "new status")
	priority := flagSet.String("priority", "", "new priority")
	if err := parseCommandFlags(flagSet, args, 1); err != nil {
		return nil, err
	}

	var req dto.UpdateTicketRequest
	if flagSet.Changed("title") {
		req.Title = title
	}
	if flagSet.Changed("description") {
		req.Description = description
	}
	if flagSet.Changed("status") {
		s := domain.TicketStatus(*status)
		req.Status = &s
	}
	if flagSet.Changed("priority") {
		p := domain.TicketPriority(*priority)
		req.Priority = &p
	}
	return a.Client.UpdateTicket(ctx, flagSet.Arg(0), req)
}

func runDelete(ctx context.Context, a *app.App, args []string) (any, error) {
	flagSet := newCommandFlags("delete")
	if err := parseCommandFlags(flagSet, args, 1); err != nil {
		return nil, err
	}
	return a.Client.DeleteTicket(ctx, flagSet.Arg(0))
}

func runStats(ctx context.Context, a *app.App, args []string) (any, error) {
	if len(args) != 0 {
		return nil, usageError("usage: ticketctl stats")
	}
	return a.Client.Stats(ctx)
}

func runHealth(ctx context.Context, a *app.App, _ []string) (any, error) {
	if err := a.Ready(ctx); err != nil {
		return nil, err
	}
	return map[string]any{"ready": true, "driver": a.Config.Store.Driver}, nil
}

func newCommandFlags(name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	return flagSet
}

func parseCommandFlags(flagSet *pflag.FlagSet, args []string, positional int) error {
	if err := flagSet.Parse(args); err != nil {
		return usageError("%s: %v", flagSet.Name(), err)
	}
	if flagSet.NArg() != positional {
		return usageError("%s: expected %d argument(s), got %d", flagSet.Name(), positional, flagSet.NArg())
	}
	return nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
