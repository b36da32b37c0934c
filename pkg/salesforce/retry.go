package salesforce

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	retryAttempts   = 3
	retryBackoff    = 500 * time.Millisecond
	retryMaxBackoff = 15 * time.Second
	retryJitter     = 0.25
)

// retryCall runs one Salesforce API call, retrying transient failures
// with exponential backoff. Non-transient errors and context
// cancellation return immediately.
func retryCall(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil || !isTransientSF(lastErr) {
			return lastErr
		}
		if attempt >= retryAttempts-1 {
			break
		}

		zap.L().Warn("retrying salesforce call",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)

		timer := time.NewTimer(sfBackoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

// isTransientSF reports whether a Salesforce API error is worth
// retrying: platform throttling and lock contention codes, plus
// ordinary network-level failures.
func isTransientSF(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"request_limit_exceeded",
		"unable_to_lock_row",
		"server_unavailable",
		"service unavailable",
		"too many requests",
		"gateway timeout",
		"bad gateway",
		"connection reset by peer",
		"broken pipe",
		"tls handshake timeout",
		"i/o timeout",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func sfBackoff(attempt int) time.Duration {
	delay := float64(retryBackoff) * math.Pow(2, float64(attempt))
	if delay > float64(retryMaxBackoff) {
		delay = float64(retryMaxBackoff)
	}
	delay += (rand.Float64()*2 - 1) * delay * retryJitter
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
