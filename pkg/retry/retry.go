// Package retry provides one retryable-operation wrapper shared by the
// flaky collaborator calls (pricing HTTP, model completions). Callers
// parameterize attempts, backoff, and a transient-error predicate.
package retry

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Policy describes how an operation is retried. Attempts is the total
// number of tries including the first; BaseDelay doubles after each
// failed attempt. Transient decides whether an error is worth
// retrying; anything else propagates immediately.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	Transient func(error) bool
}

// Do runs fn under the policy. The last error is returned when every
// attempt fails. Context cancellation interrupts the backoff sleep.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if p.Transient != nil && !p.Transient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		zerolog.Ctx(ctx).Debug().Err(err).Int("attempt", i+1).Dur("delay", delay).
			Msg("transient failure, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}

// transientMarkers is the error-text vocabulary shared by providers
// that do not surface typed errors.
var transientMarkers = []string{
	"rate limit",
	"rate_limit",
	"overloaded",
	"overload",
	"timeout",
	"timed out",
	"429",
	"500",
	"502",
	"503",
}

// TransientText reports whether the error text matches the transient
// vocabulary (rate limiting, overload, timeouts, retryable statuses).
func TransientText(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// TransientHTTPStatus reports whether an HTTP status code is worth
// retrying.
func TransientHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}
