package fetch

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter applies a per-host rate limit so a burst of URL
// verifications cannot hammer one site.
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter with the given per-host rate.
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the host's limiter allows another request or the
// context is cancelled.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	return l.limiterFor(host).Wait(ctx)
}

func (l *HostLimiter) limiterFor(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.rate, l.burst)
	l.limiters[host] = lim
	return lim
}
