package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"device-maintenance/backend/internal/telemetry"
	telemetrydomain "device-maintenance/backend/internal/telemetry/domain"
)

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Route      string `json:"route"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
	RequestID  string `json:"request_id,omitempty"`
}

// Observer traces each request and records request count and latency.
type Observer struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewObserver creates the request instruments on meter.
func NewObserver(tracer trace.Tracer, meter metric.Meter) (*Observer, error) {
	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("HTTP requests served"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request latency"), metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &Observer{tracer: tracer, requests: requests, duration: duration}, nil
}

// Middleware starts a server span named after the route template and records the metrics when the
// handler returns.
func (o *Observer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := routeTemplate(r)
		ctx, span := o.tracer.Start(r.Context(), r.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		sw := wrap(w)
		next.ServeHTTP(sw, r.WithContext(ctx))

		status := sw.code()
		attrs := []attribute.KeyValue{
			attribute.String("http.request.method", r.Method),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		}
		span.SetAttributes(attrs...)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		o.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
		o.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(attrs...))
	})
}

// Events emits an http_request event after each request. A nil emitter disables it.
func Events(emitter telemetry.EventEmitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrap(w)
			next.ServeHTTP(sw, r)
			if emitter == nil {
				return
			}
			requestID, _ := GetRequestID(r.Context())
			username := ""
			if id, ok := IdentityFrom(r.Context()); ok {
				username = id.Username
			}
			meta := httpRequestMetadata{
				Method:     r.Method,
				Route:      routeTemplate(r),
				StatusCode: sw.code(),
				DurationMs: time.Since(start).Milliseconds(),
				ClientIP:   ClientIPFrom(r.Context()),
				RequestID:  requestID,
			}
			telemetry.EmitAsync(emitter, telemetrydomain.New(telemetrydomain.EventHTTPRequest, "http_middleware", username, "", meta))
		})
	}
}
