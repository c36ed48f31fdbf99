package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	base    *slog.Logger
	verbose bool
)

func init() {
	Setup(os.Stdout, os.Getenv("ENVIRONMENT") == "development")
}

// Setup replaces the process logger. Debug lines are only emitted when debug is true.
func Setup(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))

	mu.Lock()
	base = l
	verbose = debug
	mu.Unlock()
	slog.SetDefault(l)
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Info(format string, v ...interface{}) {
	current().Info(fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	current().Error(fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	mu.RLock()
	on := verbose
	mu.RUnlock()
	if on {
		current().Debug(fmt.Sprintf(format, v...))
	}
}

func Warn(format string, v ...interface{}) {
	current().Warn(fmt.Sprintf(format, v...))
}

// With returns a structured logger carrying the given attributes, for call sites
// that log several related lines (fan-out, background jobs).
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

// LogListingEvent records a lifecycle transition of a listing.
func LogListingEvent(ctx context.Context, listingID, action, actorID string) {
	current().InfoContext(ctx, "listing event",
		slog.String("listing_id", listingID),
		slog.String("action", action),
		slog.String("actor_id", actorID),
	)
}
