package middleware

import (
	"context"
	"net/http"
	"strings"

	"donationhub/internal/auth"
	"donationhub/internal/domain"
)

// TokenParser resolves a raw session token into claims.
type TokenParser interface {
	ParseToken(raw string) (*auth.Claims, error)
}

// Principal is the authenticated account attached to a request.
type Principal struct {
	ID   string
	Kind domain.AccountKind
	Name string
}

type principalKey struct{}

// AuthJWT requires a valid session token, read from the Authorization bearer
// header or, failing that, from the session cookie.
func AuthJWT(parser TokenParser, cookieName string, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r, cookieName)
			if raw == "" {
				onError(w, r, domain.ErrUnauthorized)
				return
			}
			claims, err := parser.ParseToken(raw)
			if err != nil {
				onError(w, r, err)
				return
			}
			ctx := ContextWithPrincipal(r.Context(), Principal{ID: claims.ID, Kind: claims.Type, Name: claims.Name})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireKind lets only accounts of the given kind through.
func RequireKind(kind domain.AccountKind, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				onError(w, r, domain.ErrUnauthorized)
				return
			}
			if p.Kind != kind {
				onError(w, r, domain.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.ID != ""
}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	if strings.TrimSpace(p.ID) == "" {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}
