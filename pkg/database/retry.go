package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"strings"
	"time"
)

const (
	retryAttempts = 3
	retryJitter   = 0.25
)

// retryBaseWait is the first backoff step; later steps double it.
var retryBaseWait = time.Second

// backoff returns the wait before retry number attempt (0-indexed),
// jittered by up to 25% in either direction.
func backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := retryBaseWait << attempt
	jitter := time.Duration(float64(base) * retryJitter * (2*rand.Float64() - 1)) // #nosec G404 -- jitter only
	return base + jitter
}

var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"connection timed out",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"dial tcp",
	"server closed the connection unexpectedly",
	"could not connect",
}

// isTransient reports whether err looks like a connectivity problem rather
// than a SQL or constraint error.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if strings.HasSuffix(msg, "eof") {
		return true
	}
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// retry runs op up to retryAttempts times with exponential backoff. When
// transientOnly is set, a non-transient failure is returned immediately.
func retry(ctx context.Context, logger *slog.Logger, what string, transientOnly bool, op func(context.Context) error) error {
	var err error
	for attempt := range retryAttempts {
		if err = op(ctx); err == nil {
			return nil
		}
		if transientOnly && !isTransient(err) {
			return err
		}
		if attempt == retryAttempts-1 {
			break
		}

		wait := backoff(attempt)
		if logger != nil {
			logger.WarnContext(ctx, what+" failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", retryAttempts),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: canceled during retry: %w", what, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", what, retryAttempts, err)
}
