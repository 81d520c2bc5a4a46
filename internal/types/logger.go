package types

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

// LogLevel represents the logging level
type LogLevel int

// Log levels
const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarning
	LogLevelError
	LogLevelNone // Disables all logging
)

// ParseLogLevel maps a config value to a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarning, nil
	case "error":
		return LogLevelError, nil
	case "none", "off":
		return LogLevelNone, nil
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarning:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerOptions configures InitLogger.
type LoggerOptions struct {
	Level  LogLevel
	Format string // "text" or "json"
	Output io.Writer
	SeqURL string // optional Seq endpoint
}

// multiHandler forwards log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// InitLogger builds the application logger and returns a cleanup function
// that flushes any remote sink.
func InitLogger(opts LoggerOptions) (*slog.Logger, func()) {
	if opts.Level == LogLevelNone {
		return DiscardLogger(), func() {}
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level.slogLevel()}
	var console slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		console = slog.NewJSONHandler(output, handlerOpts)
	} else {
		console = slog.NewTextHandler(output, handlerOpts)
	}

	if opts.SeqURL == "" {
		return slog.New(console), func() {}
	}

	_, seqHandler := slogseq.NewLogger(
		opts.SeqURL,
		slogseq.WithBatchSize(1),
		slogseq.WithFlushInterval(500*time.Millisecond),
		slogseq.WithHandlerOptions(handlerOpts),
	)
	// Seq unreachable: console only
	if seqHandler == nil {
		return slog.New(console), func() {}
	}

	logger := slog.New(&multiHandler{handlers: []slog.Handler{console, seqHandler}})
	return logger, func() { seqHandler.Close() }
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
