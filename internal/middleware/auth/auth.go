// Package auth resolves the request owner from a bearer token.
package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"finwell/internal/auth"
	"finwell/internal/log"
)

type contextKey string

const ownerIDKey contextKey = "owner_id"

const (
	missingCredentials = "Authentication credentials were not provided."
	invalidToken       = "Given token not valid for any token type"
)

// WithOwnerID stores the owner id in ctx.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// GetOwnerID returns the authenticated owner, or "" outside RequireOwner.
func GetOwnerID(ctx context.Context) string {
	id, _ := ctx.Value(ownerIDKey).(string)
	return id
}

// RequireOwner rejects requests without a valid "Authorization: Bearer" token
// and stores the token's user_id as the owner for downstream handlers.
func RequireOwner(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				unauthorized(w, missingCredentials)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, missingCredentials)
				return
			}

			claims, err := jwtManager.Validate(strings.TrimSpace(token))
			if err != nil {
				slog.WarnContext(r.Context(), "Rejected bearer token", "error", err, "path", r.URL.Path)
				unauthorized(w, invalidToken)
				return
			}

			ctx := WithOwnerID(r.Context(), claims.UserID)
			ctx = log.AppendCtx(ctx, slog.String(log.FieldOwnerID, claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
