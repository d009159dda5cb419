package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ActorIDMiddleware rejects requests without an X-Actor-ID header. Every
// buyer- or vendor-facing route runs behind it; the line-item creation
// contract does not, since document pipelines have no actor identity.
func ActorIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Actor-ID") == "" {
			http.Error(w, `{"error":"X-Actor-ID header required"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminAuthMiddleware guards the admin route group with a static bearer
// token. An empty configured token leaves the group open.
func AdminAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request with method, path, response status,
// duration and the acting party.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"actor", r.Header.Get("X-Actor-ID"),
			)
		})
	}
}

type actorWindow struct {
	stamps []time.Time
}

// RateLimitMiddleware applies a sliding one-minute window per actor. Requests
// without an actor header fall back to the remote address so the creation
// contract is still bounded.
func RateLimitMiddleware(requestsPerMinute int) func(http.Handler) http.Handler {
	var mu sync.Mutex
	windows := make(map[string]*actorWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Actor-ID")
			if key == "" {
				key = r.RemoteAddr
			}

			now := time.Now()
			cutoff := now.Add(-time.Minute)

			mu.Lock()
			win := windows[key]
			if win == nil {
				win = &actorWindow{}
				windows[key] = win
			}
			kept := win.stamps[:0]
			for _, t := range win.stamps {
				if t.After(cutoff) {
					kept = append(kept, t)
				}
			}
			win.stamps = kept
			if len(win.stamps) >= requestsPerMinute {
				mu.Unlock()
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}
			win.stamps = append(win.stamps, now)
			mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}
