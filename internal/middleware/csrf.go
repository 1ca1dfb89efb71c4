package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"
)

const (
	csrfCookieName = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
	csrfFormField  = "csrf_token"
)

// CSRF issues a CSRF cookie and verifies modifying requests carry the token.
// htmx sends it in the X-CSRF-Token header; plain form posts use a hidden field.
func CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := GetSession(r)
		token := s.CSRFToken
		if token == "" {
			token = newCSRFToken()
			s.CSRFToken = token
			s.MarkDirty()
		}

		// double submit cookie
		if c, err := r.Cookie(csrfCookieName); err != nil || c.Value != token {
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: false,
				Secure:   secureCookies(),
				SameSite: http.SameSiteLaxMode,
				Expires:  time.Now().Add(24 * time.Hour),
			})
		}

		if !isSafeMethod(r.Method) {
			sent := r.Header.Get(csrfHeader)
			if sent == "" {
				sent = r.PostFormValue(csrfFormField)
			}
			if !tokensEqual(sent, token) {
				writeError(w, r, http.StatusForbidden, "invalid CSRF token")
				return
			}
			if c, err := r.Cookie(csrfCookieName); err != nil || !tokensEqual(c.Value, token) {
				writeError(w, r, http.StatusForbidden, "invalid CSRF token")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// CSRFToken returns the token templates embed in forms and hx-headers.
func CSRFToken(r *http.Request) string {
	return GetSession(r).CSRFToken
}

func tokensEqual(a, b string) bool {
	return a != "" && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func newCSRFToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
