package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/manuwestern/dionwebsite/internal/device"
	"github.com/manuwestern/dionwebsite/internal/platform/requestctx"
)

// acceptCH asks browsers to send viewport hints on follow-up requests.
var acceptCH = strings.Join([]string{device.HeaderViewportWidth, device.HeaderLegacyViewportWidth, device.HeaderMobileHint}, ", ")

// DeviceGuard redirects mobile visitors to the mobile route once per session.
// Only full-page GET navigations on non-excluded paths are evaluated; the
// session latch is set on the first evaluation and never cleared.
func DeviceGuard(policy device.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Accept-CH", acceptCH)
			s := GetSession(r)
			if s.DeviceChecked || r.Method != http.MethodGet || IsHTMX(r.Context()) || policy.IsExcluded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			s.DeviceChecked = true
			s.MarkDirty()

			d := policy.Decide(r.URL.Path, device.SignalsFromRequest(r))
			if !d.Redirect {
				next.ServeHTTP(w, r)
				return
			}
			target := d.Target
			if q := r.URL.Query().Get("hl"); q != "" {
				target += "?" + url.Values{"hl": {q}}.Encode()
			}
			requestctx.Logger(r.Context()).Info("device guard redirect",
				zap.String("from", r.URL.Path),
				zap.String("to", d.Target),
			)
			http.Redirect(w, r, target, http.StatusFound)
		})
	}
}
