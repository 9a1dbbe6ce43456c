package middleware

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/davoseaworthui/referral-builder-next/pkg/middleware"

type tracingOptions struct {
	provider   trace.TracerProvider
	propagator propagation.TextMapPropagator
	untraced   []string
}

// TracingOption customises Tracing.
type TracingOption func(*tracingOptions)

// WithTracerProvider replaces the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(o *tracingOptions) { o.provider = tp }
}

// WithPropagator replaces the global text map propagator.
func WithPropagator(p propagation.TextMapPropagator) TracingOption {
	return func(o *tracingOptions) { o.propagator = p }
}

// WithUntracedPrefixes replaces the path prefixes that get no span. The
// default skips /health/, /metrics and /debug/pprof.
func WithUntracedPrefixes(prefixes ...string) TracingOption {
	return func(o *tracingOptions) { o.untraced = prefixes }
}

// Tracing starts a server span per request, continuing any inbound W3C trace
// context and writing the span's context back on the response. The span is
// renamed to "METHOD /route/{pattern}" once chi has routed the request.
func Tracing(service string, opts ...TracingOption) func(http.Handler) http.Handler {
	o := tracingOptions{
		provider:   otel.GetTracerProvider(),
		propagator: otel.GetTextMapPropagator(),
		untraced:   []string{"/health/", "/metrics", "/debug/pprof"},
	}
	for _, opt := range opts {
		opt(&o)
	}
	tracer := o.provider.Tracer(tracerName, trace.WithInstrumentationAttributes(
		semconv.ServiceName(service),
	))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasAnyPrefix(r.URL.Path, o.untraced) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := o.propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.URLScheme(requestScheme(r)),
					semconv.UserAgentOriginal(r.UserAgent()),
					semconv.ClientAddress(clientAddr(r).String()),
				),
			)
			defer span.End()
			o.propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			if route := routePattern(r); route != unmatchedRoute {
				span.SetName(r.Method + " " + route)
				span.SetAttributes(semconv.HTTPRoute(route))
			}
			span.SetAttributes(
				semconv.HTTPResponseStatusCode(rec.status),
				attribute.Int("http.response.body.size", rec.size),
			)
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}
		})
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func requestScheme(r *http.Request) string {
	switch {
	case r.TLS != nil:
		return "https"
	case r.Header.Get("X-Forwarded-Proto") != "":
		return r.Header.Get("X-Forwarded-Proto")
	default:
		return "http"
	}
}
