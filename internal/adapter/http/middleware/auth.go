package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/uuid"
)

// --- base auth middleware ---

// Auth validates the JWT and injects the authenticated user into context.
// Requests without an Authorization header pass through as anonymous;
// protected endpoints reject them in RequireRoles.
func (h *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get("Authorization")
		if header == "" {
			// WebSocket-клиенты не умеют ставить заголовки, токен приходит
			// в query-параметре.
			header = tokenFromQuery(r)
		}
		if header == "" {
			r = r.WithContext(models.WithUser(ctx, models.AnonymousUser))
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(header)
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := h.tokens.Validate(ctx, token)
		if err != nil {
			h.log.Warn(ctx, "failed to authenticate request", "err", err.Error())
			errorResponse(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		// Refresh-токен не даёт доступа к API.
		if claims.IsRefresh {
			errorResponse(w, http.StatusUnauthorized, "access token required")
			return
		}

		user := &models.AuthUser{
			ID:         claims.UserID,
			Phone:      claims.Phone,
			Role:       claims.Role,
			TaxiparkID: claims.TaxiparkID,
		}

		next.ServeHTTP(w, r.WithContext(models.WithUser(ctx, user)))
	})
}

// RequireRoles wraps a handler and allows only users with one of the given roles.
// Usage: mux.Handle("GET /orders", m.RequireRoles(h.List, types.RoleDispatcher))
func (h *Middleware) RequireRoles(next http.HandlerFunc, allowedRoles ...types.UserRole) http.Handler {
	allowed := make(map[types.UserRole]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := models.UserFromContext(r.Context())
		if user == nil || user.IsAnonymous() {
			errorResponse(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[user.Role]; !ok {
				errorResponse(w, http.StatusForbidden, "forbidden: insufficient role")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// --- header parser ---
func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}

func tokenFromQuery(r *http.Request) string {
	token := r.URL.Query().Get("token")
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

// RequestID tags every request with a correlation id. An inbound
// X-Request-ID is trusted, otherwise a new one is generated.
func (h *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			if generated, err := uuid.New(); err == nil {
				id = generated.String()
			}
		}

		if id != "" {
			w.Header().Set("X-Request-ID", id)
			r = r.WithContext(wrap.WithRequestID(r.Context(), id))
		}

		next.ServeHTTP(w, r)
	})
}
