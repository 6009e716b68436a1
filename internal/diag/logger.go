// Package diag provides structured logging utilities built on Go's slog
// package, plus the fixed-format diagnostic line printer mandated for
// coordinator and actor PRINT output.
package diag

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// subsystem stores the default subsystem name for the application. Thread-safety
// is via atomic.Value so it can be read lock-free from many goroutines while
// ConfigureLoggingWithOptions may be updating it.
var subsystem atomic.Value //nolint:gochecknoglobals

// configMutex protects concurrent calls to ConfigureLoggingWithOptions, which
// mutates global state (slog.SetDefault, the legacy log.Default logger, and
// the subsystem atomic.Value).
var configMutex sync.Mutex //nolint:gochecknoglobals

type contextKey string

// Fatal logs an error message and exits the process with status 1.
func Fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

// Debug logs a debug-level message using the logger retrieved from the context.
func Debug(ctx context.Context, msg string, args ...any) {
	Get(ctx).DebugContext(ctx, msg, args...)
}

// Info logs an info-level message using the logger retrieved from the context.
func Info(ctx context.Context, msg string, args ...any) {
	Get(ctx).InfoContext(ctx, msg, args...)
}

// Warn logs a warning-level message using the logger retrieved from the context.
func Warn(ctx context.Context, msg string, args ...any) {
	Get(ctx).WarnContext(ctx, msg, args...)
}

// Error logs an error-level message using the logger retrieved from the context.
func Error(ctx context.Context, msg string, args ...any) {
	Get(ctx).ErrorContext(ctx, msg, args...)
}

// Options configures logging behavior and output format for both the slog
// logger and the legacy log package that third-party dependencies may use.
type Options struct {
	// Subsystem identifies the component generating the logs (e.g. "coordinator", "worker").
	Subsystem string

	// JSON selects slog.JSONHandler over slog.TextHandler.
	JSON bool

	// MinLevel is the minimum level passed through to the slog logger.
	MinLevel slog.Level

	// LegacyLevel is the level at which records from the standard log package are re-emitted.
	LegacyLevel slog.Level

	// Output is the destination for log output. Defaults to os.Stdout.
	Output io.Writer

	// OTLPEndpoint, when non-empty, additionally ships every record to an
	// OTLP log collector at this address. Disabled by default: only set via
	// OTEL_EXPORTER_OTLP_ENDPOINT, since actorhost has no multi-host
	// deployment surface on its own (§9 Non-goals).
	OTLPEndpoint string
}

// CreateLoggerHandler builds a slog.Handler from Options, choosing JSON or text
// encoding and wrapping it with the annotated-error extractor. When
// opts.OTLPEndpoint is set, the result also fans out to an OTLP log exporter.
func CreateLoggerHandler(opts Options) slog.Handler {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(opts.Output, &slog.HandlerOptions{Level: opts.MinLevel})
	} else {
		handler = slog.NewTextHandler(opts.Output, &slog.HandlerOptions{Level: opts.MinLevel})
	}

	handler = &slogErrorLogger{inner: handler}

	otlpHandler, shutdown, err := newOTLPHandler(context.Background(), opts.OTLPEndpoint)
	if err != nil {
		slog.Error("diag: otlp log exporter disabled", "error", err)
		setOTLPShutdown(nil)

		return handler
	}

	if otlpHandler == nil {
		setOTLPShutdown(nil)

		return handler
	}

	setOTLPShutdown(shutdown)

	return multiHandler{handlers: []slog.Handler{handler, otlpHandler}}
}

// ConfigureLoggingWithOptions installs the default slog logger and redirects the
// legacy log package's default logger into it. It returns the configured logger.
func ConfigureLoggingWithOptions(opts Options) *slog.Logger {
	configMutex.Lock()
	defer configMutex.Unlock()

	handler := CreateLoggerHandler(opts)

	logger := slog.New(handler)
	slog.SetDefault(logger)

	def := log.Default()
	*def = *slog.NewLogLogger(handler, opts.LegacyLevel)

	subsystem.Store(opts.Subsystem)

	return logger
}

// Option is a functional option for ConfigureLogging.
type Option func(*Options)

// ConfigureLogging reads LOG_JSON, LOG_LEVEL, LEGACY_LOG_LEVEL, and
// OTEL_EXPORTER_OTLP_ENDPOINT from the environment and installs the default
// logger for app.
func ConfigureLogging(_ context.Context, app string, opts ...Option) *slog.Logger {
	options := Options{
		Subsystem:    app,
		JSON:         boolEnv("LOG_JSON", false),
		MinLevel:     levelEnv("LOG_LEVEL", slog.LevelInfo),
		LegacyLevel:  levelEnv("LEGACY_LOG_LEVEL", slog.LevelInfo),
		Output:       os.Stdout,
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	for _, o := range opts {
		o(&options)
	}

	return ConfigureLoggingWithOptions(options)
}

func boolEnv(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	return v == "1" || v == "true" || v == "TRUE"
}

func levelEnv(key string, def slog.Level) slog.Level {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return def
	}

	return lvl
}

// WithSubsystem overrides the subsystem name carried by ctx.
func WithSubsystem(ctx context.Context, subsystem string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("subsystem"), subsystem)
}

// GetSubsystem returns the subsystem from ctx, falling back to the process default
// set by ConfigureLogging.
func GetSubsystem(ctx context.Context) string { //nolint:contextcheck
	if ctx == nil {
		ctx = context.Background()
	}

	if sub := ctx.Value(contextKey("subsystem")); sub != nil {
		if val, ok := sub.(string); ok {
			return val
		}
	}

	if defaultSub := subsystem.Load(); defaultSub != nil {
		if val, ok := defaultSub.(string); ok {
			return val
		}
	}

	return ""
}

func getRealContext(ctx ...context.Context) context.Context {
	for _, c := range ctx {
		if c != nil {
			return c
		}
	}

	return context.Background()
}

// Get returns a logger with the subsystem attribute attached, pulling the
// context's override if present.
//
//nolint:contextcheck
func Get(ctx ...context.Context) *slog.Logger {
	realCtx := getRealContext(ctx...)

	logger := slog.Default().With("subsystem", GetSubsystem(realCtx))

	if vals := getValues(realCtx); vals != nil {
		logger = logger.With(vals...)
	}

	return logger
}

// With returns a new context carrying additional key-value pairs that Get will
// attach to every logger it builds from that context.
func With(ctx context.Context, values ...any) context.Context {
	if len(values) == 0 && ctx != nil {
		return ctx
	}

	vals := append(getValues(ctx), values...)

	return context.WithValue(ctx, contextKey("loggerValues"), vals)
}

func getValues(ctx context.Context) []any { //nolint:contextcheck
	if ctx == nil {
		ctx = context.Background()
	}

	if vals := ctx.Value(contextKey("loggerValues")); vals != nil {
		if val, ok := vals.([]any); ok {
			return val
		}
	}

	return nil
}

// Line is the fixed-format diagnostic printer: coordinator events are written
// as "[ts] [System] msg" and actor PRINTs as "[ts] [Actor N] msg", both with
// millisecond-precision wall-clock timestamps, to w. This shape is a contract
// with the end-to-end test scenarios, which grep stdout for literal
// substrings, so it is kept independent of the structured slog path above.
type Line struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLine wraps w (typically os.Stdout) for emitting diagnostic lines.
func NewLine(w io.Writer) *Line {
	return &Line{w: w}
}

// System emits a coordinator-originated diagnostic line.
func (l *Line) System(format string, args ...any) {
	l.emit("System", fmt.Sprintf(format, args...))
}

// Actor emits a line attributed to the PRINT call of the given actor id.
func (l *Line) Actor(actorID int64, format string, args ...any) {
	l.emit(fmt.Sprintf("Actor %d", actorID), fmt.Sprintf(format, args...))
}

func (l *Line) emit(tag, msg string) {
	ts := time.Now().Format("15:04:05.000")

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.w, "[%s] [%s] %s\n", ts, tag, msg)
}
