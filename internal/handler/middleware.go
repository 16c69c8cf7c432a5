package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/log"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

const (
	// CorrelationIDHeader links a request to the messages it causes.
	CorrelationIDHeader = "Correlation-ID"
	// UserIDHeader carries the authenticated caller, set by the gateway in
	// front of this service.
	UserIDHeader = "X-User-ID"
)

type userIDKey struct{}

// UserIDFromContext returns the caller set by RequireUser, or "".
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// Logger attaches a request-scoped logrus entry and correlation id to the
// context and writes one access log line per request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		correlationID := r.Header.Get(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = shortuuid.New()
		}
		w.Header().Set(CorrelationIDHeader, correlationID)

		logger := log.FromContext(r.Context()).WithFields(logrus.Fields{
			"request_id":     chimiddleware.GetReqID(r.Context()),
			"correlation_id": correlationID,
		})
		ctx := log.ContextWithCorrelationID(r.Context(), correlationID)
		ctx = log.ToContext(ctx, logger)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start).String(),
		}).Info("http request")
	})
}

// CORS allows any origin; the API carries no cookies.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+UserIDHeader+", "+CorrelationIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests without a caller identity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+UserIDHeader+" header")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		ctx = log.ToContext(ctx, log.FromContext(ctx).WithField("user_id", userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits callers whose account holds role. It must run after
// RequireUser.
func (h *EventHandler) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := h.events.GetUser(r.Context(), UserIDFromContext(r.Context()))
			switch {
			case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrValidation):
				writeError(w, http.StatusUnauthorized, "unknown caller")
				return
			case err != nil:
				writeServiceError(w, r, err)
				return
			}

			if user.Role != role {
				log.FromContext(r.Context()).WithField("role", user.Role).Warn("caller lacks required role")
				writeError(w, http.StatusForbidden, role+" role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
