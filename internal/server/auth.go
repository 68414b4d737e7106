package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Badar25/Journal-backend/internal/auth"
	"github.com/Badar25/Journal-backend/internal/logging"
)

// devUserHeader names the caller when authentication is disabled.
const devUserHeader = "X-User-ID"

// userKey is the context key for the authenticated user ID.
type userKey struct{}

// withUser returns a copy of ctx carrying userID.
func withUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// userFromContext returns the authenticated user ID, or "" when absent.
func userFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// authMiddleware returns an HTTP middleware that resolves the caller's
// bearer token to a user ID through v and stores it in the request context.
// If v is nil, authentication is disabled and the X-User-ID header is
// trusted instead.
//
// Protected routes must supply:
//
//	Authorization: Bearer <jwt>
//
// Requests missing the token or presenting one that fails verification
// receive 401 Unauthorized with a WWW-Authenticate: Bearer challenge. The
// token value is never logged.
func authMiddleware(v auth.Verifier, next http.Handler) http.Handler {
	if v == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := strings.TrimSpace(r.Header.Get(devUserHeader))
			if user == "" {
				writeUnauthenticated(w, r, `Bearer realm="journal"`, "authorization required")
				return
			}
			ctx := logging.With(r.Context(), slog.String("user_id", user))
			next.ServeHTTP(w, r.WithContext(withUser(ctx, user)))
		})
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		token := bearerToken(r)
		if token == "" {
			log.Warn("auth: missing Authorization header",
				slog.String("path", r.URL.Path),
			)
			writeUnauthenticated(w, r, `Bearer realm="journal"`, "authorization required")
			return
		}

		user, err := v.Verify(r.Context(), token)
		if err != nil {
			kind := auth.KindOf(err)
			log.Warn("auth: token rejected",
				slog.String("path", r.URL.Path),
				slog.String("reason", string(kind)),
				slog.Any("error", err),
			)
			if kind == auth.KindOther {
				writeJSON(w, r, http.StatusServiceUnavailable, envelope{
					Message: "Authentication is temporarily unavailable",
					Error:   "AUTH_UNAVAILABLE",
				})
				return
			}
			writeUnauthenticated(w, r, `Bearer realm="journal" error="invalid_token"`, "token "+string(kind))
			return
		}

		ctx := logging.With(r.Context(), slog.String("user_id", user))
		next.ServeHTTP(w, r.WithContext(withUser(ctx, user)))
	})
}

// writeUnauthenticated writes a 401 envelope with the given challenge.
func writeUnauthenticated(w http.ResponseWriter, r *http.Request, challenge, msg string) {
	w.Header().Set("WWW-Authenticate", challenge)
	writeJSON(w, r, http.StatusUnauthorized, envelope{Message: msg, Error: "UNAUTHENTICATED"})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns an empty string if the header is absent or malformed.
func bearerToken(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	if hdr == "" {
		return ""
	}
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
