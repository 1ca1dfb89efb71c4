package middleware

import (
	"net/http"
)

// HTMX marks requests coming from htmx so handlers/middlewares can adapt responses
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true"
		if is {
			// fragments and full pages share URLs
			w.Header().Add("Vary", "HX-Request")
		}
		ctx := WithHTMX(r.Context(), is)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HXTarget returns the id of the element htmx will swap, if any.
func HXTarget(r *http.Request) string {
	return r.Header.Get("HX-Target")
}

// HXTrigger sets the HX-Trigger response header when value is non-empty.
func HXTrigger(w http.ResponseWriter, value string) {
	if value != "" {
		w.Header().Set("HX-Trigger", value)
	}
}

// HXRedirect asks htmx to perform a full client-side navigation.
func HXRedirect(w http.ResponseWriter, target string) {
	w.Header().Set("HX-Redirect", target)
}
