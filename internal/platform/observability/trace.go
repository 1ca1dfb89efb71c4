package observability

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/manuwestern/dionwebsite/internal/platform/requestctx"
)

const tracerName = "github.com/manuwestern/dionwebsite"

var propagator = propagation.TraceContext{}

// Tracer returns the package-wide tracer used by the site.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// TraceMiddleware continues a W3C traceparent when present, starts a server
// span and stores trace ids on the request context.
func TraceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := Tracer().Start(ctx, r.Method+" "+SanitizeRoute(r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(requestAttributes(r)...),
			)
			defer span.End()

			sc := span.SpanContext()
			ctx = requestctx.WithTrace(ctx, requestctx.TraceInfo{
				TraceID: sc.TraceID().String(),
				SpanID:  sc.SpanID().String(),
				Sampled: sc.IsSampled(),
			})

			recorder := newResponseRecorder(w)
			next.ServeHTTP(recorder, r.WithContext(ctx))

			status := recorder.Status()
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		})
	}
}

func requestAttributes(r *http.Request) []attribute.KeyValue {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", SanitizeMethod(r.Method)),
		attribute.String("url.scheme", scheme),
		attribute.String("url.path", SanitizeRoute(r.URL.Path)),
	}
	if r.Host != "" {
		attrs = append(attrs, attribute.String("server.address", sanitizeString(r.Host, 128)))
	}
	if ua := r.UserAgent(); ua != "" {
		attrs = append(attrs, attribute.String("user_agent.original", sanitizeString(ua, 256)))
	}
	return attrs
}
