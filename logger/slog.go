package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LevelTrace sits below slog.LevelDebug for the engine's highest-volume,
// lowest-signal events (a filtered message, an unroutable service name) —
// spec-mandated but too chatty to share Debug's level.
const LevelTrace = slog.Level(-8)

type Slog struct {
	log *slog.Logger
}

type SlogHandler func() *slog.Logger

var DefaultSlog = NewSlog(nil)

// NewSlog creates a new Slog logger using functional options.
func NewSlog(handler SlogHandler) *Slog {
	if handler == nil {
		handler = WithTextHandler(os.Stdout, slog.LevelInfo)
	}

	return &Slog{
		log: handler(),
	}
}

// WithJSONHandler returns a logger with JSON formatting and custom level.
func WithJSONHandler(w io.Writer, level slog.Level) SlogHandler {
	return func() *slog.Logger {
		if w == nil {
			w = os.Stdout
		}
		handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})

		return slog.New(handler)
	}
}

// WithTextHandler returns a logger with text formatting and custom level.
func WithTextHandler(w io.Writer, level slog.Level) SlogHandler {
	return func() *slog.Logger {
		if w == nil {
			w = os.Stdout
		}
		handler := slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
		})

		return slog.New(handler)
	}
}

func (s *Slog) Trace(msg string, args ...any) {
	s.log.Log(context.Background(), LevelTrace, msg, args...)
}

func (s *Slog) Debug(msg string, args ...any) {
	s.log.Debug(msg, args...)
}

func (s *Slog) Info(msg string, args ...any) {
	s.log.Info(msg, args...)
}

func (s *Slog) Warn(msg string, args ...any) {
	s.log.Warn(msg, args...)
}

func (s *Slog) Error(msg string, args ...any) {
	s.log.Error(msg, args...)
}

func (s *Slog) Fatal(msg string, args ...any) {
	s.log.Error(msg, args...)
	//nolint:revive // exit on fatal log
	os.Exit(1)
}

func (s *Slog) With(args ...any) Logger {
	return &Slog{
		log: s.log.With(args...),
	}
}
