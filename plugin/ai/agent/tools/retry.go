package tools

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

const (
	maxAttempts = 3
	baseDelay   = 100 * time.Millisecond
	maxDelay    = 1 * time.Second
)

// withRetry runs fn up to maxAttempts times with exponential backoff,
// retrying only transient data-layer failures. The last error is returned
// unwrapped so callers see the original failure.
func withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	delay := baseDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransient(err) || attempt == maxAttempts {
			break
		}

		slog.Debug("tool store operation failed, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return lastErr
}

// isTransient classifies connection-class database failures worth retrying.
// Validation and not-found failures never match.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"network",
		"timeout",
		"connection",
		"unavailable",
		"temporary",
		"retry",
		"eof",
		"database is locked",
		"busy",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
