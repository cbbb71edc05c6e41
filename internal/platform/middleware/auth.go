package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"custodia/pkg/domain"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	Identity string
	Role     string
}

type contextKeyCallerIdentity struct{}
type contextKeyCallerRole struct{}

// Context keys are exported for use in handler tests.
var (
	ContextKeyCallerIdentity = contextKeyCallerIdentity{}
	ContextKeyCallerRole     = contextKeyCallerRole{}
)

// GetCallerIdentity retrieves the authenticated caller identity from the
// context.
func GetCallerIdentity(ctx context.Context) domain.Identity {
	id, ok := ctx.Value(ContextKeyCallerIdentity).(string)
	if !ok {
		return domain.NoIdentity
	}
	return domain.Identity(id)
}

// GetCallerRole retrieves the caller role claim from the context.
func GetCallerRole(ctx context.Context) string {
	role, ok := ctx.Value(ContextKeyCallerRole).(string)
	if !ok {
		return ""
	}
	return role
}

func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			if token, ok := strings.CutPrefix(authHeader, bearerPrefix); ok {
				claims, err := validator.ValidateToken(token)
				if err != nil {
					ctx := r.Context()
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"request_id", GetRequestID(ctx),
					)
					writeUnauthorized(w, "Invalid or expired token")
					return
				}

				ctx := r.Context()
				ctx = context.WithValue(ctx, ContextKeyCallerIdentity, claims.Identity)
				ctx = context.WithValue(ctx, ContextKeyCallerRole, claims.Role)

				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx := r.Context()
			logger.WarnContext(ctx, "unauthorized access - missing token",
				"request_id", GetRequestID(ctx),
			)
			writeUnauthorized(w, "Missing or invalid Authorization header")
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
