package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"bookstore-be/internal/apperror"
	"bookstore-be/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type tier struct {
	name  string
	limit rate.Limit
	burst int
}

var (
	tierStrict   = tier{"strict", 2, 5}
	tierGeneral  = tier{"general", 10, 20}
	tierFrontend = tier{"frontend", 20, 40}
	tierInternal = tier{"internal", 100, 200}
)

const (
	visitorTTL      = 3 * time.Minute
	cleanupInterval = time.Minute
)

// strictPaths covers credential checks and payment initiation.
var strictPaths = map[string]bool{
	"/user/login":    true,
	"/user/register": true,
	"/user/pay":      true,
}

// exemptRoutes are never throttled. The payment provider must always get its
// callback acknowledged, and its callbacks arrive in bursts from a few hosts.
var exemptRoutes = map[string]bool{
	http.MethodPost + " /callback": true,
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per caller and tier.
type Limiter struct {
	internalKey string
	now         func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewLimiter builds a limiter. Requests carrying X-Service-Auth equal to
// internalKey get the internal tier; an empty key disables that tier.
func NewLimiter(internalKey string) *Limiter {
	return &Limiter{
		internalKey: internalKey,
		now:         time.Now,
		visitors:    make(map[string]*visitor),
	}
}

// Run evicts idle visitors until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > visitorTTL {
			delete(l.visitors, key)
		}
	}
}

func (l *Limiter) visitor(key string, t tier) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

// Middleware rejects requests over their tier's quota with 429 and a
// Retry-After hint.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if exemptRoutes[r.Method+" "+r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		t := l.resolveRateTier(r)
		key := callerKey(r) + ":" + t.name

		if !l.visitor(key, t).Allow() {
			logger.FromCtx(r.Context()).Warn("rate limited",
				zap.String("bucket", key),
				zap.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(t)))
			writeError(w, http.StatusTooManyRequests, apperror.KindRateLimited, http.StatusText(http.StatusTooManyRequests))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// callerKey uses the authenticated user when there is one and the remote IP
// otherwise. Client-supplied headers never pick the bucket.
func callerKey(r *http.Request) string {
	if userID, ok := logger.UserIDFrom(r.Context()); ok {
		return fmt.Sprintf("user:%d", userID)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

func retryAfterSeconds(t tier) int {
	secs := int(math.Ceil(1 / float64(t.limit)))
	if secs < 1 {
		return 1
	}
	return secs
}

func (l *Limiter) resolveRateTier(r *http.Request) tier {
	switch {
	case l.internalKey != "" && r.Header.Get("X-Service-Auth") == l.internalKey:
		return tierInternal
	case strictPaths[r.URL.Path] || r.Header.Get("X-Action") == "auth":
		return tierStrict
	case r.Header.Get("X-Client-Type") == "frontend-heavy":
		return tierFrontend
	default:
		return tierGeneral
	}
}
