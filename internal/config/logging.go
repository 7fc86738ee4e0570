package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// InitLogger builds the root logger from the logging configuration.
//
// Stderr gets human-readable console output when it is a terminal and raw
// JSON otherwise. When a log file is configured it receives JSON alongside
// the console writer. The returned cleanup func closes the file handle and
// must be called at shutdown; it is a no-op when no file is open.
//
// An unparseable level falls back to info rather than failing startup.
func InitLogger(cfg LoggingConfig) (zerolog.Logger, func() error, error) {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var writers []io.Writer
	if isTerminal(os.Stderr) {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	} else {
		writers = append(writers, os.Stderr)
	}

	cleanup := func() error { return nil }
	if cfg.File != "" {
		logFile, fileErr := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if fileErr != nil {
			return zerolog.Nop(), cleanup, fileErr
		}
		writers = append(writers, logFile)
		cleanup = logFile.Close
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	return logger, cleanup, nil
}
