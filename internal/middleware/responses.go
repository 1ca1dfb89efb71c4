package middleware

import (
	"net/http"
	"strings"

	"github.com/manuwestern/dionwebsite/internal/platform/httpx"
)

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	slug := strings.ReplaceAll(strings.ToLower(http.StatusText(code)), " ", "_")
	httpx.Fail(w, r, httpx.NewError(slug, msg, code))
}
