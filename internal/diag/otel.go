package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
)

// otlpShutdown, set by CreateLoggerHandler whenever an OTLP log exporter was
// actually built, lets Shutdown flush and close it once at process exit.
var (
	otlpMu       sync.Mutex //nolint:gochecknoglobals
	otlpShutdown func(context.Context) error
)

// newOTLPHandler builds a slog.Handler that ships every record to an OTLP
// log collector over HTTP, plus the provider's Shutdown for flushing on exit.
// Returns a nil handler when endpoint is empty: this exporter only exists
// when OTEL_EXPORTER_OTLP_ENDPOINT is explicitly set, since actorhost has no
// multi-host deployment by default (§9 Non-goals) and nothing in the repo
// otherwise has an OTLP collector to talk to.
func newOTLPHandler(ctx context.Context, endpoint string) (slog.Handler, func(context.Context) error, error) {
	if endpoint == "" {
		return nil, nil, nil
	}

	exporter, err := otlploghttp.New(ctx, otlploghttp.WithEndpoint(endpoint), otlploghttp.WithInsecure())
	if err != nil {
		return nil, nil, fmt.Errorf("diag: building otlp log exporter: %w", err)
	}

	res := resource.NewWithAttributes("", attribute.String("service.name", "actorhost"))

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)

	// Registering the provider globally lets any other component that logs
	// through the otel logs API (not just this package's slog bridge) reach
	// the same collector, the same role otel.SetTracerProvider plays for traces.
	otel.SetLoggerProvider(provider)

	handler := otelslog.NewHandler("actorhost", otelslog.WithLoggerProvider(provider))

	return handler, provider.Shutdown, nil
}

// setOTLPShutdown records the active OTLP provider's Shutdown func so a
// later call to Shutdown can flush it. Safe to call with a nil fn, clearing
// any prior registration (e.g. on repeated ConfigureLogging calls in tests).
func setOTLPShutdown(fn func(context.Context) error) {
	otlpMu.Lock()
	defer otlpMu.Unlock()

	otlpShutdown = fn
}

// Shutdown flushes and closes the OTLP log exporter, if one was configured.
// A no-op when OTEL_EXPORTER_OTLP_ENDPOINT was never set. The runtime driver
// calls this once during its own teardown sequence.
func Shutdown(ctx context.Context) error {
	otlpMu.Lock()
	fn := otlpShutdown
	otlpMu.Unlock()

	if fn == nil {
		return nil
	}

	return fn(ctx)
}

// multiHandler fans a record out to every inner handler, used to keep the
// line-shaped/console handler active alongside the optional OTLP handler.
type multiHandler struct {
	handlers []slog.Handler
}

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (m multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}

		if err := h.Handle(ctx, record.Clone()); err != nil {
			return fmt.Errorf("diag: multi-handler: %w", err)
		}
	}

	return nil
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}

	return multiHandler{handlers: next}
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}

	return multiHandler{handlers: next}
}
