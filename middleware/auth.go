package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"task-manager/backend/logging"
	"task-manager/backend/models"
)

type contextKey string

const callerKey contextKey = "caller"

// CallerResolver turns a bearer token into the identity of the caller.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, token string) (models.Caller, error)
}

// JWTAuthMiddleware rejects requests without a valid bearer token and stores the
// resolved caller in the request context.
func JWTAuthMiddleware(resolver CallerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || strings.TrimSpace(tokenStr) == "" {
				logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Bearer token missing for request to %s %s", r.Method, r.URL.Path)
				writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}

			caller, err := resolver.ResolveCaller(r.Context(), strings.TrimSpace(tokenStr))
			if err != nil {
				logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
				writeMessage(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}

			logging.Logger.Debugf("Event ID: JWT_AUTH_SUCCESS, Description: Caller %s (%s) authenticated for %s %s", caller.ID.Hex(), caller.Role, r.Method, r.URL.Path)
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

func CallerFromContext(ctx context.Context) (models.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(models.Caller)
	return caller, ok
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
