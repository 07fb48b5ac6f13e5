package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	apperrors "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/errors"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/httpclient"
)

// newEngineBreaker builds the breaker that guards every engine read. Caller
// cancellations and client errors do not count against the backend.
func newEngineBreaker(cfg httpclient.CircuitBreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[any] {
	cfg.IsSuccessful = func(err error) bool {
		if err == nil || errors.Is(err, context.Canceled) {
			return true
		}
		var appErr *apperrors.AppError
		return errors.As(err, &appErr) && appErr.Status < 500
	}
	return httpclient.NewBreaker[any](cfg, logger)
}

// guarded runs fn through the breaker and maps backend failures to
// SearchUnavailable. Client errors and cancellation pass through untouched.
func guarded[T any](ctx context.Context, cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T
	v, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return zero, err
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Status < 500 {
			return zero, err
		}
		return zero, apperrors.SearchUnavailable(err)
	}
	return v.(T), nil
}
