package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const tenantContextKey contextKey = "tenant"

// Claims is the token payload the platform's auth service issues. The tenant
// is carried in the `service` claim; older tokens carry it as the trailing
// segment of the issuer instead.
type Claims struct {
	Username string `json:"username"`
	Service  string `json:"service"`
	jwt.RegisteredClaims
}

// Tenant resolves the tenant the claims authorize.
func (c *Claims) Tenant() string {
	if c.Service != "" {
		return c.Service
	}
	if c.Issuer != "" {
		if idx := strings.LastIndexByte(c.Issuer, '/'); idx != -1 {
			return c.Issuer[idx+1:]
		}
		return c.Issuer
	}
	return ""
}

// TenantFromContext returns the authenticated tenant stored by Auth.
func TenantFromContext(ctx context.Context) (string, bool) {
	tenant, ok := ctx.Value(tenantContextKey).(string)
	return tenant, ok && tenant != ""
}

// ContextWithTenant is used by tests and by the websocket admission path,
// which authenticates through token redemption instead of a bearer token.
func ContextWithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantContextKey, tenant)
}

// Auth validates the bearer token with HS256 and stores the resolved tenant
// in the request context. Requests without a tenant-bearing token are
// rejected; there is no anonymous access to the API surface.
func Auth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			tenant := claims.Tenant()
			if tenant == "" {
				writeError(w, http.StatusUnauthorized, "no tenant in token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithTenant(r.Context(), tenant)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
