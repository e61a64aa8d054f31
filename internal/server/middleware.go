// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ommathur/quickpick/internal/identity"
	"github.com/ommathur/quickpick/pkg/types"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID reuses the client's X-Request-ID or assigns a new one, and
// echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFrom returns the request ID stored by RequestID.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// AccessLog logs one line per request.
func AccessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"request_id", RequestIDFrom(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"elapsed", time.Since(start),
			)
		})
	}
}

// Authenticate resolves the caller and stores it in the request context.
// With a verifier the bearer token decides. Without one, devUser is used
// when set; otherwise every request is rejected.
func Authenticate(v *identity.Verifier, devUser string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var caller types.Caller
			switch {
			case v != nil:
				header := r.Header.Get("Authorization")
				if !strings.HasPrefix(header, "Bearer ") {
					writeProblem(w, r, http.StatusUnauthorized, "expected 'Authorization: Bearer <token>'")
					return
				}
				c, err := v.Verify(header)
				if err != nil {
					writeProblem(w, r, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				caller = c
			case devUser != "":
				caller = types.Caller{ID: devUser}
			default:
				writeProblem(w, r, http.StatusUnauthorized, "authentication not configured")
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.ContextWithCaller(r.Context(), caller)))
		})
	}
}
