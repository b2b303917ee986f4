// Package logger owns the process-wide slog logger and request-scoped
// children carried on a context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/oggyb/swipe-server/internal/config"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"

	textTimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

type Config struct {
	Level      string
	Format     Format
	Component  string
	WithSource bool
}

// FromAppConfig picks the log settings out of the app config.
func FromAppConfig(c *config.Config) Config {
	return Config{
		Level:      c.Log.Level,
		Format:     Format(strings.ToLower(c.Log.Format)),
		Component:  c.Log.Component,
		WithSource: c.Log.Source,
	}
}

var (
	global atomic.Pointer[slog.Logger]

	// guards out and current, which rebuilds read
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	current           = Config{Level: "info", Format: FormatText}
)

// New builds a logger writing to w. Unknown formats fall back to text.
func New(w io.Writer, c Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(c.Level),
		AddSource: c.WithSource,
	}

	var h slog.Handler
	if c.Format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		opts.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().UTC().Format(textTimeLayout))
			}
			return a
		}
		h = slog.NewTextHandler(w, opts)
	}

	l := slog.New(h)
	if c.Component != "" {
		l = l.With("component", c.Component)
	}
	return l
}

// InitFromConfig initializes global logger from app config.
func InitFromConfig(c *config.Config) {
	if c == nil {
		Init(nil)
		return
	}
	lc := FromAppConfig(c)
	Init(&lc)
}

// Init rebuilds the global logger; nil keeps the previous settings.
func Init(c *Config) {
	mu.Lock()
	defer mu.Unlock()
	if c != nil {
		current = *c
	}
	global.Store(New(out, current))
}

// SetOutput redirects the global logger, keeping its settings. For tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	global.Store(New(out, current))
}

// L returns the global logger, building the default one on first use.
func L() *slog.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	Init(nil)
	return global.Load()
}

// Discard returns a logger that drops everything, for tests and tools.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// With creates a child logger with additional attributes.
func With(args ...any) *slog.Logger { return L().With(args...) }

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

type ctxKey struct{}

// IntoContext attaches l to ctx, e.g. a child tagged with a request id.
func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached by IntoContext, or fallback.
func FromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return fallback
}

// ParseLevel maps a config string to a level; anything unknown is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
