package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"pdl-records/internal/model"
)

type tokenValidator interface {
	ValidateToken(tokenString string) (*model.Claims, error)
}

type permissionSource interface {
	GetPermissions(ctx context.Context, roleID int64) ([]model.PermissionGrant, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

// AuthMiddleware is the authorization gate: RequireAuth verifies the
// bearer token statelessly; RequirePermission re-queries the role's
// grants per request instead of trusting a stale token payload.
type AuthMiddleware struct {
	validator   tokenValidator
	permissions permissionSource
}

func NewAuthMiddleware(validator tokenValidator, permissions permissionSource) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, permissions: permissions}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeAuthError(w, http.StatusUnauthorized, "NO_TOKEN", "no token provided")
			return
		}

		token := strings.TrimSpace(header[7:])
		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			writeAuthError(w, http.StatusForbidden, "INVALID_TOKEN", "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission gates a route on a module capability. The lookup is
// a fresh read from the credential store, so role changes take effect
// without waiting for token expiry.
func (m *AuthMiddleware) RequirePermission(module string, capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "NO_TOKEN", "authentication required")
				return
			}

			grants, err := m.permissions.GetPermissions(r.Context(), claims.RoleID)
			if err != nil {
				slog.Error("permission lookup failed", "role_id", claims.RoleID, "error", err)
				writeAuthError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "could not verify permissions")
				return
			}

			for _, grant := range grants {
				if strings.EqualFold(grant.Module, module) && grant.Allows(capability) {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*model.Claims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.Claims)
	return claims, ok
}

func writeAuthError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
