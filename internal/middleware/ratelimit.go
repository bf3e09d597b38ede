package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/vinnodrive/vinnodrive/internal/handler"
	"github.com/vinnodrive/vinnodrive/internal/ratelimit"
)

// RateLimitAuth creates middleware for auth endpoints
// Limits: 5 requests per 15 minutes per IP
// Idle entries are swept until ctx is done.
func RateLimitAuth(ctx context.Context) func(http.HandlerFunc) http.HandlerFunc {
	limiter := ratelimit.NewWindow(5, 15*time.Minute)
	go limiter.Run(ctx, 5*time.Minute)

	return RateLimit(limiter)
}

func RateLimit(limiter *ratelimit.Window) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			if !limiter.Allow(ip) {
				slog.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
				)
				handler.WriteError(w, http.StatusTooManyRequests, handler.CodeRateLimited, "Too many requests. Please try again later.")
				return
			}

			next(w, r)
		}
	}
}

// getClientIP extracts real client IP from request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (proxy/load balancer)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
