package limiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
)

const (
	DefaultRPS = 20
	minRPS     = 1
	maxRPS     = 100
)

// Limiter is a token bucket shared by every AWS driver of one provider.
type Limiter struct {
	limiter *rate.Limiter
	rps     int
}

// New builds a limiter allowing rps calls per second with an equal burst.
// Zero selects the default; values outside 1-100 fall back to it with a
// warning.
func New(rps int, logger ports.Logger) *Limiter {
	value := DefaultRPS
	switch {
	case rps >= minRPS && rps <= maxRPS:
		value = rps
	case rps != 0:
		logger.Warnf(context.Background(), "Invalid AWS API RPS configured (%d), using default %d RPS. Valid range: %d-%d.",
			rps, DefaultRPS, minRPS, maxRPS)
	}
	logger.Debugf(context.Background(), "AWS API rate limiter: %d RPS", value)
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(value), value), rps: value}
}

func (l *Limiter) RPS() int {
	return l.rps
}

func (l *Limiter) Wait(ctx context.Context, logger ports.Logger) error {
	if err := l.limiter.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			logger.Warnf(ctx, "Error waiting for AWS API rate limiter: %v", err)
		}
		return err
	}
	return nil
}
