package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/sainikcanteen/storefront/internal/auth"
	"github.com/sainikcanteen/storefront/internal/user"
)

const tokenCookieName = "token"

type principalKey struct{}

// PrincipalFromContext returns the authenticated user placed in the request
// context by the auth middleware.
func PrincipalFromContext(ctx context.Context) (*user.User, bool) {
	principal, ok := ctx.Value(principalKey{}).(*user.User)
	return principal, ok
}

type AuthMiddleware struct {
	tokens     *auth.Manager
	users      user.Service
	adminEmail string
}

func NewAuthMiddleware(tokens *auth.Manager, users user.Service, adminEmail string) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, adminEmail: adminEmail}
}

// Authenticate requires a valid token in the Authorization header or the
// token cookie, loads the user it references and stores it as the request
// principal. A token for a deleted user is rejected like a bad token.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractToken(r)
		if tokenStr == "" {
			respondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := m.tokens.Parse(tokenStr)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		principal, err := m.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			log.Error().Err(err).Msg("Failed to load principal for valid token")
			respondWithError(w, http.StatusInternalServerError, "Failed to authenticate request")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Attach is the soft variant of Authenticate: it stores the principal when a
// valid token is present and lets the request through either way.
func (m *AuthMiddleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractToken(r)
		if tokenStr == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := m.tokens.Parse(tokenStr)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin allows admins through, plus the configured privileged address.
// It must run after Authenticate.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !m.isAdmin(principal) {
			respondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) isAdmin(principal *user.User) bool {
	if principal.Role == user.RoleAdmin {
		return true
	}
	return m.adminEmail != "" && strings.EqualFold(principal.Email, m.adminEmail)
}

func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, found := strings.CutPrefix(header, "Bearer "); found {
			return token
		}
	}
	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequestLogger emits one structured log line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request handled")
	})
}
