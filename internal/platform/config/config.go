package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile          = ".env"
	defaultPort             = "8080"
	defaultReadHeader       = 10 * time.Second
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultRequestTimeout   = 30 * time.Second
	defaultEnvironment      = "local"
	defaultBaseURL          = "http://localhost:8080"
	defaultLocale           = "de"
	defaultWebhookTimeout   = 10 * time.Second
	defaultWebhookRetries   = 1
	defaultFormResetDelay   = 5 * time.Second
	defaultFormIdleTTL      = 30 * time.Minute
	defaultMobilePath       = "/mobile"
	defaultMobileBreakpoint = 768
	defaultHeroInterval     = 6 * time.Second
	defaultReviewInterval   = 7 * time.Second
	defaultCaseInterval     = 8 * time.Second
	defaultFAQInterval      = 5 * time.Second
	defaultPromoDelay       = 8 * time.Second
	defaultMapLat           = 52.520008
	defaultMapLng           = 13.404954
	defaultMapZoom          = 15
	defaultMapTiles         = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	defaultMapAttribution   = "&copy; OpenStreetMap contributors"
	defaultContentCacheTTL  = 5 * time.Minute
)

var defaultLocales = []string{"de", "en", "tr"}

var defaultDeviceExclusions = []string{
	"/mobile", "/legal", "/forms", "/fragments", "/stream", "/promo", "/assets", "/healthz",
}

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Session   SessionConfig
	Webhook   WebhookConfig
	Analytics AnalyticsConfig
	Map       MapConfig
	Device    DeviceConfig
	Carousel  CarouselConfig
	Promo     PromoConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RequestTimeout    time.Duration
}

// SiteConfig describes where templates and content live and how the site is addressed.
type SiteConfig struct {
	Environment     string
	BaseURL         string
	DevMode         bool
	LogLevel        string
	TemplatesDir    string
	PublicDir       string
	LocalesDir      string
	ContentDir      string
	DefaultLocale   string
	Locales         []string
	ContentCacheTTL time.Duration
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	SigningKey string
	Secure     bool
}

// WebhookConfig points form submissions at the external webhook.
type WebhookConfig struct {
	URL        string
	Timeout    time.Duration
	Retries    int
	ResetDelay time.Duration
	IdleTTL    time.Duration
}

// AnalyticsConfig lists tag manager identifiers surfaced to templates.
type AnalyticsConfig struct {
	GTMContainerID   string
	GA4MeasurementID string
	Debug            bool
}

// MapConfig centres the embedded map on the clinic.
type MapConfig struct {
	Latitude    float64
	Longitude   float64
	Zoom        int
	TileURL     string
	Attribution string
}

// DeviceConfig drives the mobile redirect guard.
type DeviceConfig struct {
	MobilePath string
	Breakpoint int
	Excluded   []string
}

// CarouselConfig holds autoplay periods per carousel instance.
type CarouselConfig struct {
	HeroInterval   time.Duration
	ReviewInterval time.Duration
	CaseInterval   time.Duration
	FAQInterval    time.Duration
}

// PromoConfig toggles the promotional popup.
type PromoConfig struct {
	Enabled bool
	Delay   time.Duration
}

// IsProduction reports whether the site runs in the production environment.
func (c Config) IsProduction() bool {
	return c.Site.Environment == "prod" || c.Site.Environment == "production"
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values that take precedence over the system environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, .env overrides and environment
// variables (explicit map > process env > .env file).
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := options.envMap[key]; ok {
			return v, true
		}
		if options.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		if v, ok := dotEnv[key]; ok {
			return v, true
		}
		return "", false
	}

	port := stringWithDefault(lookup, "CLINIC_WEB_PORT", "")
	if port == "" {
		// Cloud Run style platforms inject PORT.
		port = stringWithDefault(lookup, "PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:              port,
			ReadHeaderTimeout: durationWithDefault(lookup, "CLINIC_WEB_READ_HEADER_TIMEOUT", defaultReadHeader),
			ReadTimeout:       durationWithDefault(lookup, "CLINIC_WEB_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:      durationWithDefault(lookup, "CLINIC_WEB_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:       durationWithDefault(lookup, "CLINIC_WEB_IDLE_TIMEOUT", defaultIdleTimeout),
			RequestTimeout:    durationWithDefault(lookup, "CLINIC_WEB_REQUEST_TIMEOUT", defaultRequestTimeout),
		},
		Site: SiteConfig{
			Environment:     strings.ToLower(stringWithDefault(lookup, "CLINIC_WEB_ENV", defaultEnvironment)),
			BaseURL:         strings.TrimRight(stringWithDefault(lookup, "CLINIC_WEB_BASE_URL", defaultBaseURL), "/"),
			DevMode:         boolWithDefault(lookup, "CLINIC_WEB_DEV", false),
			LogLevel:        stringWithDefault(lookup, "CLINIC_WEB_LOG_LEVEL", "info"),
			TemplatesDir:    stringWithDefault(lookup, "CLINIC_WEB_TEMPLATES_DIR", "templates"),
			PublicDir:       stringWithDefault(lookup, "CLINIC_WEB_PUBLIC_DIR", "public"),
			LocalesDir:      stringWithDefault(lookup, "CLINIC_WEB_LOCALES_DIR", "locales"),
			ContentDir:      stringWithDefault(lookup, "CLINIC_WEB_CONTENT_DIR", "content"),
			DefaultLocale:   strings.ToLower(stringWithDefault(lookup, "CLINIC_WEB_DEFAULT_LOCALE", defaultLocale)),
			Locales:         lowerAll(csvWithDefault(lookup, "CLINIC_WEB_LOCALES", defaultLocales)),
			ContentCacheTTL: durationWithDefault(lookup, "CLINIC_WEB_CONTENT_CACHE_TTL", defaultContentCacheTTL),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "CLINIC_WEB_SESSION_SIGNING_KEY", ""),
		},
		Webhook: WebhookConfig{
			URL:        stringWithDefault(lookup, "CLINIC_WEB_WEBHOOK_URL", ""),
			Timeout:    durationWithDefault(lookup, "CLINIC_WEB_WEBHOOK_TIMEOUT", defaultWebhookTimeout),
			Retries:    intWithDefault(lookup, "CLINIC_WEB_WEBHOOK_RETRIES", defaultWebhookRetries),
			ResetDelay: durationWithDefault(lookup, "CLINIC_WEB_FORM_RESET_DELAY", defaultFormResetDelay),
			IdleTTL:    durationWithDefault(lookup, "CLINIC_WEB_FORM_IDLE_TTL", defaultFormIdleTTL),
		},
		Analytics: AnalyticsConfig{
			GTMContainerID:   stringWithDefault(lookup, "CLINIC_WEB_GTM_CONTAINER_ID", ""),
			GA4MeasurementID: stringWithDefault(lookup, "CLINIC_WEB_GA_MEASUREMENT_ID", ""),
			Debug:            boolWithDefault(lookup, "CLINIC_WEB_ANALYTICS_DEBUG", false),
		},
		Map: MapConfig{
			Latitude:    floatWithDefault(lookup, "CLINIC_WEB_MAP_LAT", defaultMapLat),
			Longitude:   floatWithDefault(lookup, "CLINIC_WEB_MAP_LNG", defaultMapLng),
			Zoom:        intWithDefault(lookup, "CLINIC_WEB_MAP_ZOOM", defaultMapZoom),
			TileURL:     stringWithDefault(lookup, "CLINIC_WEB_MAP_TILE_URL", defaultMapTiles),
			Attribution: stringWithDefault(lookup, "CLINIC_WEB_MAP_ATTRIBUTION", defaultMapAttribution),
		},
		Device: DeviceConfig{
			MobilePath: stringWithDefault(lookup, "CLINIC_WEB_MOBILE_PATH", defaultMobilePath),
			Breakpoint: intWithDefault(lookup, "CLINIC_WEB_MOBILE_BREAKPOINT", defaultMobileBreakpoint),
			Excluded:   csvWithDefault(lookup, "CLINIC_WEB_MOBILE_EXCLUDED", defaultDeviceExclusions),
		},
		Carousel: CarouselConfig{
			HeroInterval:   durationWithDefault(lookup, "CLINIC_WEB_CAROUSEL_HERO_INTERVAL", defaultHeroInterval),
			ReviewInterval: durationWithDefault(lookup, "CLINIC_WEB_CAROUSEL_REVIEW_INTERVAL", defaultReviewInterval),
			CaseInterval:   durationWithDefault(lookup, "CLINIC_WEB_CAROUSEL_CASE_INTERVAL", defaultCaseInterval),
			FAQInterval:    durationWithDefault(lookup, "CLINIC_WEB_CAROUSEL_FAQ_INTERVAL", defaultFAQInterval),
		},
		Promo: PromoConfig{
			Enabled: boolWithDefault(lookup, "CLINIC_WEB_PROMO_ENABLED", true),
			Delay:   durationWithDefault(lookup, "CLINIC_WEB_PROMO_DELAY", defaultPromoDelay),
		},
	}
	cfg.Session.Secure = boolWithDefault(lookup, "CLINIC_WEB_SESSION_SECURE", cfg.IsProduction())

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Site.BaseURL == "" {
		missing = append(missing, "Site.BaseURL")
	}
	if cfg.Site.DefaultLocale == "" || !contains(cfg.Site.Locales, cfg.Site.DefaultLocale) {
		missing = append(missing, "Site.DefaultLocale")
	}
	if cfg.Webhook.Timeout <= 0 {
		missing = append(missing, "Webhook.Timeout")
	}
	if cfg.Webhook.Retries < 0 {
		missing = append(missing, "Webhook.Retries")
	}
	if cfg.Webhook.ResetDelay <= 0 {
		missing = append(missing, "Webhook.ResetDelay")
	}
	if cfg.Device.Breakpoint <= 0 {
		missing = append(missing, "Device.Breakpoint")
	}
	if !strings.HasPrefix(cfg.Device.MobilePath, "/") {
		missing = append(missing, "Device.MobilePath")
	}
	for name, d := range map[string]time.Duration{
		"Carousel.HeroInterval":   cfg.Carousel.HeroInterval,
		"Carousel.ReviewInterval": cfg.Carousel.ReviewInterval,
		"Carousel.CaseInterval":   cfg.Carousel.CaseInterval,
		"Carousel.FAQInterval":    cfg.Carousel.FAQInterval,
	} {
		if d <= 0 {
			missing = append(missing, name)
		}
	}
	if cfg.IsProduction() {
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			missing = append(missing, "Webhook.URL")
		}
		if len(cfg.Session.SigningKey) < 32 {
			missing = append(missing, "Session.SigningKey")
		}
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func floatWithDefault(lookup func(string) (string, bool), key string, fallback float64) float64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		out := make([]string, len(fallback))
		copy(out, fallback)
		return out
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func lowerAll(values []string) []string {
	for i, v := range values {
		values[i] = strings.ToLower(v)
	}
	return values
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
