package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	sessionCookieName = "DION_WEB_SESSION"
	sessionLifetime   = 30 * 24 * time.Hour
)

// SessionData is the visitor state carried in the signed session cookie.
type SessionData struct {
	ID        string `json:"id"`
	Locale    string `json:"locale,omitempty"`
	CSRFToken string `json:"csrf,omitempty"`
	// DeviceChecked latches once the mobile guard has evaluated this visitor.
	DeviceChecked  bool      `json:"dev,omitempty"`
	PromoDismissed bool      `json:"promo,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	// internal dirty flag; not serialized
	dirty bool `json:"-"`
}

var (
	sessionMu      sync.RWMutex
	sessionSignKey []byte
	sessionSecure  bool
)

// ConfigureSession sets the cookie signing key and Secure attribute. An empty
// key yields a process-ephemeral one; the return value reports that case.
func ConfigureSession(key string, secure bool) (ephemeral bool) {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	sessionSecure = secure
	if key != "" {
		sessionSignKey = []byte(key)
		return false
	}
	sessionSignKey = make([]byte, 32)
	if _, err := rand.Read(sessionSignKey); err != nil {
		sessionSignKey = []byte("insecure-dev-key-set-CLINIC_WEB_SESSION_SIGNING_KEY")
	}
	return true
}

func signingKey() []byte {
	sessionMu.RLock()
	key := sessionSignKey
	sessionMu.RUnlock()
	if key == nil {
		ConfigureSession("", false)
		sessionMu.RLock()
		key = sessionSignKey
		sessionMu.RUnlock()
	}
	return key
}

func secureCookies() bool {
	sessionMu.RLock()
	defer sessionMu.RUnlock()
	return sessionSecure
}

// Session loads or initializes a session and stores it in request context.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := readSessionCookie(r)
		if sd.ID == "" {
			sd.ID = randID()
			sd.CreatedAt = time.Now().UTC()
			sd.UpdatedAt = sd.CreatedAt
			sd.CSRFToken = newCSRFToken()
			sd.dirty = true
		}
		ctx := WithSession(r.Context(), sd)
		rw := NewResponseRecorder(w)
		// the cookie must be set before the first byte goes out
		rw.SetBeforeWrite(func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				writeSessionCookie(w, sd)
			}
		})
		next.ServeHTTP(rw, r.WithContext(ctx))
		if !rw.Wrote() && (sd.dirty || !fromCookie) {
			writeSessionCookie(w, sd)
		}
	})
}

// GetSession returns session data from context
func GetSession(r *http.Request) *SessionData {
	if v := r.Context().Value(ctxKeySession); v != nil {
		if sd, ok := v.(*SessionData); ok {
			return sd
		}
	}
	return &SessionData{}
}

// MarkDirty flags the session for writing at end of request
func (s *SessionData) MarkDirty() { s.dirty = true; s.UpdatedAt = time.Now().UTC() }

// readSessionCookie parses and verifies the session cookie
func readSessionCookie(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	payload, sig, ok := strings.Cut(c.Value, ".")
	if !ok {
		return &SessionData{}, false
	}
	payloadB, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return &SessionData{}, false
	}
	sigB, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return &SessionData{}, false
	}
	if !hmac.Equal(sigB, sign(payloadB)) {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := json.Unmarshal(payloadB, &sd); err != nil {
		return &SessionData{}, false
	}
	if !sd.CreatedAt.IsZero() && time.Since(sd.CreatedAt) > sessionLifetime {
		return &SessionData{}, false
	}
	return &sd, true
}

// EncodeSession returns the signed cookie value for sd.
func EncodeSession(sd *SessionData) string {
	b, _ := json.Marshal(sd)
	return base64.RawURLEncoding.EncodeToString(b) + "." + base64.RawURLEncoding.EncodeToString(sign(b))
}

// SessionCookieName is the name of the signed session cookie.
func SessionCookieName() string { return sessionCookieName }

func sign(b []byte) []byte {
	mac := hmac.New(sha256.New, signingKey())
	mac.Write(b)
	return mac.Sum(nil)
}

func writeSessionCookie(w http.ResponseWriter, sd *SessionData) {
	// httpOnly to prevent JS access
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    EncodeSession(sd),
		Path:     "/",
		HttpOnly: true,
		Secure:   secureCookies(),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionLifetime),
	})
}

func randID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
