// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
)

// Init builds a slog logger writing to stdout, mirrored to logPath when
// set. The returned file is nil when no path was given; callers Close()
// it on shutdown.
func Init(logPath string) (*slog.Logger, *os.File) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	if logPath == "" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
		logger.Error("failed to open log file; falling back to stdout only", "path", logPath, "err", err)
		return logger, nil
	}

	mw := io.MultiWriter(f, os.Stdout)
	logger := slog.New(slog.NewTextHandler(mw, opts))

	// align legacy stdlib log output too
	log.SetOutput(mw)
	return logger, f
}
