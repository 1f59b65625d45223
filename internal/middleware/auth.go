// Package middleware holds the HTTP middleware of the shop API.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AdminAuth checks the Bearer API key on admin routes. An empty key
// disables the admin surface entirely.
type AdminAuth struct {
	key []byte
}

func NewAdminAuth(key string) *AdminAuth {
	return &AdminAuth{key: []byte(key)}
}

func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.key) == 0 {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		token, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(token), a.key) != 1 {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
