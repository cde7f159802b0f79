package mtree

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with the tree's structured events.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable logs to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output. It is the default.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// LogSplit records a node split.
func (l *Logger) LogSplit(leaf, root bool, entries, routes int) {
	l.Debug("node split",
		"leaf", leaf,
		"root", root,
		"entries", entries,
		"routes", routes,
	)
}

// LogOracleRejected records an oracle answer that did not describe a split.
func (l *Logger) LogOracleRejected(points, k int, err error) {
	if err != nil {
		l.Debug("split oracle failed",
			"points", points,
			"k", k,
			"error", err,
		)
		return
	}
	l.Debug("split oracle declined",
		"points", points,
		"k", k,
	)
}

// LogForcedResolution records a kNN placeholder that had to be resolved by
// scanning its subtree after the search queue ran dry.
func (l *Logger) LogForcedResolution(k int, subtreePoints int) {
	l.Debug("knn placeholder resolved by scan",
		"k", k,
		"subtree_points", subtreePoints,
	)
}
