package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Log is the global logger instance
var Log *slog.Logger

type Options struct {
	Development bool
	SentryDSN   string
	Environment string
	Output      io.Writer // Defaults to stdout
}

// Init installs the default logger.
// Development: Text format with Debug level
// Production: JSON format with Info level
// With a Sentry DSN, error records are also reported to Sentry.
func Init(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var handlers []slog.Handler
	if opts.Development {
		handlers = append(handlers, slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         opts.SentryDSN,
			Environment: opts.Environment,
		})
		if err != nil {
			slog.New(handlers[0]).Warn("sentry disabled", "error", err)
		} else {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	Log = slog.New(handler).With("service", "vinnodrive")
	slog.SetDefault(Log)
}

// Flush waits for buffered Sentry events. It is a no-op without Sentry.
func Flush() {
	sentry.Flush(2 * time.Second)
}
