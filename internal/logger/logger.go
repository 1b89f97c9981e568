// internal/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/SzKingXz/aurore-backend/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	zl zerolog.Logger
}

// New logs to stdout (console format) and to a rotating JSON file.
func New(cfg config.LoggerConfig) (*Logger, error) {
	file := cfg.File
	if file == "" {
		file = "logs/aurore.log"
	}

	if !filepath.IsAbs(file) {
		dir, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		file = filepath.Join(dir, file)
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotating := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"}
	l := NewWithWriter(io.MultiWriter(console, rotating), cfg.Level)
	l.Info("Logger initialized. Log file: ", file)

	return l, nil
}

// NewWithWriter builds a logger on an arbitrary sink. Unknown levels fall
// back to info.
func NewWithWriter(w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return &Logger{
		zl: zerolog.New(w).Level(lvl).With().Timestamp().Logger(),
	}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

func (l *Logger) Debug(v ...interface{}) {
	l.zl.Debug().Msg(fmt.Sprint(v...))
}

func (l *Logger) Info(v ...interface{}) {
	l.zl.Info().Msg(fmt.Sprint(v...))
}

func (l *Logger) Warn(v ...interface{}) {
	l.zl.Warn().Msg(fmt.Sprint(v...))
}

func (l *Logger) Error(v ...interface{}) {
	l.zl.Error().Msg(fmt.Sprint(v...))
}

func (l *Logger) Fatal(v ...interface{}) {
	l.zl.Fatal().Msg(fmt.Sprint(v...))
}

// Request logs one HTTP access line with structured fields.
func (l *Logger) Request(fields map[string]interface{}, status int) {
	var evt *zerolog.Event
	switch {
	case status >= 500:
		evt = l.zl.Error()
	case status >= 400:
		evt = l.zl.Warn()
	default:
		evt = l.zl.Info()
	}
	evt.Fields(fields).Int("status", status).Msg("request")
}
