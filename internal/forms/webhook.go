package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/manuwestern/dionwebsite/internal/platform/requestctx"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	defaultRetryWait      = 250 * time.Millisecond
	tracerName            = "github.com/manuwestern/dionwebsite/internal/forms"
)

// ErrWebhookNotConfigured is returned when no endpoint is set.
var ErrWebhookNotConfigured = errors.New("forms: webhook url not configured")

// Payload is the JSON body POSTed to the webhook. Field values are flattened
// next to the metadata keys.
type Payload struct {
	FormType     string
	Timestamp    time.Time
	Source       string
	Locale       string
	SubmissionID string
	Fields       map[string]any
}

// MarshalJSON flattens field values into the top-level object.
func (p Payload) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+5)
	for k, v := range p.Fields {
		out[k] = v
	}
	out["formType"] = p.FormType
	out["timestamp"] = p.Timestamp.UTC().Format(time.RFC3339)
	out["source"] = p.Source
	if p.Locale != "" {
		out["locale"] = p.Locale
	}
	if p.SubmissionID != "" {
		out["submissionId"] = p.SubmissionID
	}
	return json.Marshal(out)
}

// Sender delivers a payload to the external endpoint.
type Sender interface {
	Send(ctx context.Context, payload Payload) error
}

// SubmitError reports a failed delivery. StatusCode is zero for transport
// errors.
type SubmitError struct {
	StatusCode int
	Err        error
}

func (e *SubmitError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("forms: webhook responded %d", e.StatusCode)
	}
	return fmt.Sprintf("forms: webhook request failed: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// WebhookOption customises a WebhookClient.
type WebhookOption func(*resty.Client)

// WithRetryWait overrides the pause between attempts.
func WithRetryWait(d time.Duration) WebhookOption {
	return func(c *resty.Client) {
		c.SetRetryWaitTime(d).SetRetryMaxWaitTime(d)
	}
}

// WebhookClient POSTs submissions with a bounded timeout and retries on
// transport errors and 5xx responses.
type WebhookClient struct {
	url    string
	client *resty.Client
	tracer trace.Tracer
}

// NewWebhookClient constructs a client for url.
func NewWebhookClient(url string, timeout time.Duration, retries int, opts ...WebhookOption) *WebhookClient {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	if retries < 0 {
		retries = 0
	}
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(defaultRetryWait).
		SetRetryMaxWaitTime(defaultRetryWait).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && resp.StatusCode() >= http.StatusInternalServerError
		})
	for _, opt := range opts {
		opt(rc)
	}
	return &WebhookClient{
		url:    strings.TrimSpace(url),
		client: rc,
		tracer: otel.Tracer(tracerName),
	}
}

// Send posts payload. Only the status code of the response is inspected.
func (c *WebhookClient) Send(ctx context.Context, payload Payload) error {
	if c == nil || c.url == "" {
		return ErrWebhookNotConfigured
	}
	ctx, span := c.tracer.Start(ctx, "forms.webhook.post", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("form.type", payload.FormType),
		attribute.String("form.submission_id", payload.SubmissionID),
	)

	logger := requestctx.Logger(ctx)
	started := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		logger.Warn("webhook request failed",
			zap.String("form_type", payload.FormType),
			zap.String("submission_id", payload.SubmissionID),
			zap.Duration("latency", time.Since(started)),
			zap.Error(err),
		)
		return &SubmitError{Err: err}
	}

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if !resp.IsSuccess() {
		span.SetStatus(codes.Error, http.StatusText(status))
		logger.Warn("webhook rejected submission",
			zap.String("form_type", payload.FormType),
			zap.String("submission_id", payload.SubmissionID),
			zap.Int("status", status),
			zap.Int("attempts", resp.Request.Attempt),
		)
		return &SubmitError{StatusCode: status}
	}
	logger.Info("webhook accepted submission",
		zap.String("form_type", payload.FormType),
		zap.String("submission_id", payload.SubmissionID),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(started)),
	)
	return nil
}
