package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"task-manager/backend/logging"
)

// visitorTTL is how long an idle client IP keeps its limiter.
const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type visitorSet struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	r         rate.Limit
	b         int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newVisitorSet(r rate.Limit, b int, ttl time.Duration, now func() time.Time) *visitorSet {
	return &visitorSet{
		visitors:  make(map[string]*visitor),
		r:         r,
		b:         b,
		ttl:       ttl,
		lastSweep: now(),
		now:       now,
	}
}

// get returns the limiter for ip. Idle entries are swept at most once per ttl.
func (s *visitorSet) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.ttl {
		for key, v := range s.visitors {
			if now.Sub(v.lastSeen) >= s.ttl {
				delete(s.visitors, key)
			}
		}
		s.lastSweep = now
	}

	v, exists := s.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(s.r, s.b)}
		s.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (s *visitorSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

// RateLimiter throttles each client IP to r requests per second with burst b.
func RateLimiter(r rate.Limit, b int) func(http.Handler) http.Handler {
	return rateLimiter(newVisitorSet(r, b, visitorTTL, time.Now))
}

func rateLimiter(visitors *visitorSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ip := clientIP(req)
			if !visitors.get(ip).Allow() {
				logging.Logger.Warnf("Event ID: RATE_LIMIT_EXCEEDED, Description: Too many requests from %s to %s", ip, req.URL.Path)
				writeMessage(w, http.StatusTooManyRequests, "Too many requests, please try again later.")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
