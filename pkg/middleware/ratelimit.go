package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/davoseaworthui/referral-builder-next/pkg/httputil"
)

// idleClientTTL is how long a client's bucket survives without requests.
const idleClientTTL = 3 * time.Minute

var rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_rate_limited_total",
	Help: "Requests rejected by the per-client rate limiter.",
}, []string{"route"})

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// buckets keeps one token bucket per client address.
type buckets struct {
	mu      sync.Mutex
	byAddr  map[netip.Addr]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

func newBuckets(rps, burst int, idleTTL time.Duration) *buckets {
	return &buckets{
		byAddr:  make(map[netip.Addr]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// take spends one token for addr. When none is left it returns false and how
// long until one will be.
func (b *buckets) take(addr netip.Addr) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	bk, ok := b.byAddr[addr]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.byAddr[addr] = bk
	}
	bk.lastSeen = now

	r := bk.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// evictIdle drops buckets unused for longer than idleTTL.
func (b *buckets) evictIdle() {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-b.idleTTL)
	for addr, bk := range b.byAddr {
		if bk.lastSeen.Before(cutoff) {
			delete(b.byAddr, addr)
		}
	}
}

func (b *buckets) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byAddr)
}

func (b *buckets) janitor(ctx context.Context) {
	ticker := time.NewTicker(b.idleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.evictIdle()
		}
	}
}

// RateLimit allows each client address rps requests per second with bursts
// up to burst. Rejected requests get 429 and a Retry-After in whole seconds.
// Idle buckets are evicted until ctx is done.
func RateLimit(ctx context.Context, rps, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	b := newBuckets(rps, burst, idleClientTTL)
	go b.janitor(ctx)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)
			ok, wait := b.take(addr)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			rateLimitedTotal.WithLabelValues(routePattern(r)).Inc()
			logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("client", addr.String()),
				slog.Duration("retry_after", wait),
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			httputil.WriteMessage(w, http.StatusTooManyRequests, "too many requests")
		})
	}
}

// clientAddr takes the first parseable address from X-Forwarded-For, then
// X-Real-IP, then RemoteAddr. An unparseable RemoteAddr yields the zero
// Addr, so such clients share one bucket.
func clientAddr(r *http.Request) netip.Addr {
	candidates := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	candidates = append(candidates, r.Header.Get("X-Real-IP"))
	for _, c := range candidates {
		if addr, err := netip.ParseAddr(strings.TrimSpace(c)); err == nil {
			return addr.Unmap()
		}
	}
	addr, _ := remoteAddr(r)
	return addr
}
