package source

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter throttles outbound requests per hostname. All adapters in a run
// share one instance, so two sources pointed at the same board queue behind
// the same bucket instead of doubling the request rate.
type HostLimiter struct {
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
	rps   rate.Limit
	burst int
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	return &HostLimiter{
		hosts: make(map[string]*rate.Limiter),
		rps:   rate.Limit(reqPerSec),
		burst: burst,
	}
}

// WaitURL blocks until the bucket for the URL's host allows a request, or the
// context expires. Unparseable URLs share a single fallback bucket; they still
// get throttled, just not per host.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	host := "_"
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host = u.Host
	}
	return hl.bucket(host).Wait(ctx)
}

func (hl *HostLimiter) bucket(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	lim, ok := hl.hosts[host]
	if !ok {
		lim = rate.NewLimiter(hl.rps, hl.burst)
		hl.hosts[host] = lim
	}
	return lim
}
