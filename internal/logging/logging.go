package logging

import (
	"log/slog"
	"os"
)

// Level maps the CLI flags to a slog level: WARN by default, INFO with
// verbose, DEBUG with debug.
func Level(verbose, debug bool) slog.Level {
	switch {
	case debug:
		return slog.LevelDebug
	case verbose:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

func Init(verbose, debug bool) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: Level(verbose, debug),
	})
	slog.SetDefault(slog.New(handler))
}
