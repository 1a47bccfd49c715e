package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
)

// Resolver maps a bearer token to the caller's identity, or nil.
type Resolver interface {
	Resolve(ctx context.Context, token string) *domain.Identity
}

// Auth resolves the bearer token, if any, and stores the identity in the
// request context. When required is set, requests without a live session
// are rejected with 401. Otherwise they pass through anonymously.
func Auth(resolver Resolver, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)

			var identity *domain.Identity
			if token != "" {
				identity = resolver.Resolve(r.Context(), token)
			}

			if identity == nil {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				msg := "Authentication required"
				if token != "" {
					msg = "Invalid or expired session"
				}
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, map[string]string{"error": msg})
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken returns the token from an "Authorization: Bearer <token>"
// header, or the raw header value when the prefix is absent.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func GetIdentity(ctx context.Context) (*domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*domain.Identity)
	return identity, ok && identity != nil
}

// GetUserID returns the caller's id, or nil for anonymous requests.
func GetUserID(ctx context.Context) *uuid.UUID {
	identity, ok := GetIdentity(ctx)
	if !ok {
		return nil
	}
	id := identity.UserID
	return &id
}
