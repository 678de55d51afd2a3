package http

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"pricescanner/frontend/shared/html"
	sessioncookie "pricescanner/infrastructure/session"
)

// CSRFMiddleware implements a double-submit cookie. The token is issued on
// first contact and handed to the views through the request context; unsafe
// methods must echo it in the X-CSRF-Token header or the _csrf form field.
func (s *Server) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := csrfCookie(r)
		if !ok {
			token = randomToken(32)
			http.SetCookie(w, &http.Cookie{
				Name:     sessioncookie.CSRFCookieName,
				Value:    token,
				Path:     "/",
				Secure:   s.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}
		r = r.WithContext(html.WithCSRFToken(r.Context(), token))

		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		// A token minted on this request cannot have been echoed yet.
		if !ok || !validCSRF(token, submittedCSRF(r)) {
			s.Log.From(r.Context()).Warn().Str("path", r.URL.Path).Msg("csrf.rejected")
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func csrfCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessioncookie.CSRFCookieName)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		return "", false
	}
	return c.Value, true
}

func submittedCSRF(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(sessioncookie.CSRFCookieName)); v != "" {
		return v
	}
	return strings.TrimSpace(r.FormValue(html.CSRFFieldName))
}

func validCSRF(expected, provided string) bool {
	return provided != "" && subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

func randomToken(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
