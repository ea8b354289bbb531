package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/beatify/internal/models"
)

type contextKey string

const userContextKey contextKey = "beatify.user"

// userFrom returns the authenticated user stored by requireAuth.
func userFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequest logs method, path, status, and duration for each request.
func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr)
	})
}

// recoverPanic converts handler panics into 500 responses.
func (s *Server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic in handler", "error", fmt.Sprint(err), "path", r.URL.Path)
				w.Header().Set("Connection", "close")
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// recordMetrics updates the request counters and latency histogram.
func (s *Server) recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.metrics.RequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

const (
	rateLimitPerSecond = 10
	rateLimitBurst     = 20
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter tracks a token bucket per client IP. Entries idle for an hour
// are dropped on the next sweep.
type ipRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

func newIPRateLimiter() *ipRateLimiter {
	return &ipRateLimiter{clients: map[string]*clientLimiter{}}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	client, ok := l.clients[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rateLimitPerSecond, rateLimitBurst)}
		l.clients[ip] = client
	}
	client.lastSeen = time.Now()

	if len(l.clients) > 1024 {
		for ip, c := range l.clients {
			if time.Since(c.lastSeen) > time.Hour {
				delete(l.clients, ip)
			}
		}
	}

	return client.limiter.Allow()
}

// rateLimit answers 429 once a client exhausts its token bucket. The bucket
// is shared across routes, keyed by client IP.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	limiter := s.limiter

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !limiter.allow(ip) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withSession wraps handlers with the scs session lifecycle.
func (s *Server) withSession(next http.Handler) http.Handler {
	return s.sessions.LoadAndSave(next)
}

// requireAuth resolves the caller's session token, from the Authorization
// header (Bearer) or the browser session, and stores the user on the request
// context. Unauthenticated requests get a 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = s.sessions.GetString(r.Context(), sessionTokenKey)
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := s.auth.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
