package router

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/config"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
)

const (
	maxLoggedBodyBytes = 32 * 1024 // 32KB
	binaryBodyOmitted  = "<binary body omitted>"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   bytes.Buffer
	capped bool
	err    error
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if !w.capped {
		remaining := maxLoggedBodyBytes - w.body.Len()
		if len(p) > remaining {
			w.body.Write(p[:remaining])
			w.capped = true
		} else {
			w.body.Write(p)
		}
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *statusRecorder) SetError(err error) {
	w.err = err
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

//nolint:err113 // it use dynamic error
func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

func (w *statusRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

// observer logs, traces and counts every request. Field masking happens in
// the slog handler installed by instrument; only headers are masked here since
// http.Header values are slices the handler does not inspect.
type observer struct {
	maskKeys map[string]struct{}
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newObserver(cfg config.Config, ins instrument.Instrumentation) *observer {
	o := &observer{
		maskKeys: make(map[string]struct{}),
		tracer:   ins.Tracer("http.server"),
	}

	if cfg != nil {
		for _, field := range cfg.GetArray("instrument.log_mask_fields") {
			o.maskKeys[strings.ToLower(field)] = struct{}{}
		}
	}

	meter := ins.Meter("http.server")

	var err error
	o.requests, err = meter.Int64Counter("http.server.requests", metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	o.duration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return o
}

func (o *observer) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key := range h {
		if _, found := o.maskKeys[strings.ToLower(key)]; found {
			out[key] = "***"
			continue
		}
		out[key] = h.Get(key)
	}
	return out
}

// peekBody reads up to maxLoggedBodyBytes of the request body and puts it
// back so the handler still sees the full stream.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	//nolint:errcheck // best effort for logging only
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	return head
}

// loggableBody renders a captured body for the log. Complete JSON stays a
// string so the log handler can mask its fields.
func loggableBody(body []byte, truncated bool) any {
	switch {
	case len(body) == 0:
		return nil
	case !utf8.Valid(body):
		return binaryBodyOmitted
	case truncated:
		return map[string]any{"body": string(body), "truncated": true}
	default:
		return string(body)
	}
}

func requestBody(r *http.Request) any {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return binaryBodyOmitted
	}

	body := peekBody(r)
	return loggableBody(body, len(body) == maxLoggedBodyBytes)
}

func (o *observer) record(ctx context.Context, span trace.Span, r *http.Request, route string, rec *statusRecorder, elapsed time.Duration) {
	status := rec.statusCode()
	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(route),
		semconv.HTTPResponseStatusCodeKey.Int(status),
	}

	if rec.err != nil {
		span.RecordError(rec.err)
	}

	switch {
	case status >= http.StatusInternalServerError && rec.err != nil:
		span.SetStatus(codes.Error, rec.err.Error())
	case status >= http.StatusInternalServerError:
		span.SetStatus(codes.Error, http.StatusText(status))
	default:
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(attrs...)
	span.SetAttributes(
		semconv.NetworkProtocolVersionKey.String(r.Proto),
		semconv.ServerAddressKey.String(r.Host),
		attribute.String("http.user_agent", r.UserAgent()),
		attribute.Int("http.response_content_length", rec.bytes),
	)

	if o.requests != nil {
		o.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if o.duration != nil {
		o.duration.Record(ctx, float64(elapsed.Milliseconds()), metric.WithAttributes(attrs...))
	}
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	o := newObserver(cfg, ins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := o.tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
				),
			)
			defer span.End()

			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", r.URL.Path,
				"headers", o.headers(r.Header),
				"body", requestBody(r),
			)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			elapsed := time.Since(start)
			o.record(ctx, span, r, route, rec, elapsed)

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"status", rec.statusCode(),
				"bytes", rec.bytes,
				"latency_ms", elapsed.Milliseconds(),
				"body", loggableBody(rec.body.Bytes(), rec.capped),
			)
		})
	}
}
