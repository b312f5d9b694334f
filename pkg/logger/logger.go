package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/lmittmann/tint"
)

// Config controls log level, format and Sentry forwarding.
type Config struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Format      string `env:"LOG_FORMAT" envDefault:"json"`
	SentryDSN   string `env:"SENTRY_DSN"`
	Environment string `env:"APP_ENV" envDefault:"production"`
	NoColor     bool   `env:"NO_COLOR"`
}

const (
	FormatJSON = "json"
	FormatText = "text"
)

// ErrInvalidConfig is returned for an unknown level or format.
var ErrInvalidConfig = errors.New("logger: invalid configuration")

const sentryFlushTimeout = 2 * time.Second

// New builds a logger writing to w. The returned flush function drains
// buffered Sentry events and is safe to call when Sentry is disabled.
func New(cfg Config, w io.Writer, extractors ...ContextExtractor) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, nil, fmt.Errorf("%w: level %q", ErrInvalidConfig, cfg.Level)
		}
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case FormatJSON, "":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case FormatText:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    cfg.NoColor,
		})
	default:
		return nil, nil, fmt.Errorf("%w: format %q", ErrInvalidConfig, cfg.Format)
	}

	flush := func() {}
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			EnableLogs:  true,
		})
		if err != nil {
			slog.New(handler).Error("sentry disabled", slog.Any("error", err))
		} else {
			handler = fanout{handler, sentryslog.Option{
				EventLevel: []slog.Level{slog.LevelError},
				LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
			}.NewSentryHandler(context.Background())}
			flush = func() { sentry.Flush(sentryFlushTimeout) }
		}
	}

	return slog.New(WithExtractors(handler, extractors...)), flush, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
