package rest

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/observability"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util"
)

// Middleware wraps a handler.
type Middleware func(HandlerFunc) HandlerFunc

// Chain applies middlewares so the first one listed runs outermost.
func Chain(h HandlerFunc, middlewares ...Middleware) HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// SessionReader exposes the current identity.
type SessionReader interface {
	CurrentUser() (domain.SessionUser, bool)
}

// Recover turns a panicking handler into an internal error.
func Recover(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) (resp *Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic recovered",
						zap.Any("panic", r),
						zap.String("route", call.Route),
						zap.ByteString("stack", debug.Stack()))
					resp, err = nil, apperrors.NewInternalError(fmt.Errorf("panic: %v", r))
				}
			}()
			return next(ctx, call)
		}
	}
}

// RequestLogger logs each call and records it in metrics.
func RequestLogger(logger *zap.Logger, metrics *observability.Metrics) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) (*Response, error) {
			start := time.Now()
			resp, err := next(ctx, call)
			duration := time.Since(start)

			fields := []zap.Field{
				zap.String("method", call.Method),
				zap.String("path", call.Path),
				zap.String("route", call.Route),
				zap.Duration("duration", duration),
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordRequest(call.Route, call.Method, domainErr.Status, duration)
				metrics.RecordError(call.Route, call.Method, domainErr.Code)
				fields = append(fields, zap.Int("status", domainErr.Status), zap.String("code", domainErr.Code))
				if domainErr.Status >= 500 {
					logger.Error("request failed", append(fields, zap.Error(err))...)
				} else {
					logger.Debug("request rejected", fields...)
				}
				return nil, err
			}

			metrics.RecordRequest(call.Route, call.Method, resp.Status, duration)
			logger.Debug("request", append(fields, zap.Int("status", resp.Status))...)
			return resp, nil
		}
	}
}

// RequireSession rejects anonymous callers and puts the principal on ctx.
func RequireSession(sessions SessionReader) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) (*Response, error) {
			if sessions == nil {
				return nil, apperrors.ErrUnauthenticated
			}
			user, ok := sessions.CurrentUser()
			if !ok {
				return nil, apperrors.ErrUnauthenticated
			}
			return next(auth.WithPrincipal(ctx, user), call)
		}
	}
}
