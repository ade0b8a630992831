package vafile

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with index-specific helpers.
// It is injected via WithLogger and owned by the index it is given to.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{Logger: l.Logger.With("dimension", dim)}
}

// WithPartitions adds a partitions field to the logger.
func (l *Logger) WithPartitions(p int) *Logger {
	return &Logger{Logger: l.Logger.With("partitions", p)}
}

// LogBuild logs completion of an index build.
func (l *Logger) LogBuild(size, dimension, partitions int, err error) {
	if err != nil {
		l.Error("build failed",
			"size", size,
			"dimension", dimension,
			"partitions", partitions,
			"error", err,
		)
	} else {
		l.Info("build completed",
			"size", size,
			"dimension", dimension,
			"partitions", partitions,
		)
	}
}

// LogOutOfGrid warns that a vector coordinate fell outside the quantile grid.
func (l *Logger) LogOutOfGrid(id uint32, dim int, value float64) {
	l.Warn("vector outside of VA-file grid, clamping to edge cell",
		"id", id,
		"dim", dim,
		"value", value,
	)
}

// LogQueryOutOfGrid warns that a query coordinate fell outside the grid.
func (l *Logger) LogQueryOutOfGrid(dim int, value float64) {
	l.Warn("query outside of VA-file grid, clamping to edge cell",
		"dim", dim,
		"value", value,
	)
}

// LogSearch logs a completed search.
func (l *Logger) LogSearch(kind string, candidates, results int, err error) {
	if err != nil {
		l.Error("search failed", "kind", kind, "error", err)
	} else {
		l.Debug("search completed",
			"kind", kind,
			"candidates", candidates,
			"results", results,
		)
	}
}
