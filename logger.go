package tileview

import (
	"log/slog"

	"github.com/gogpu/tileview/internal/logging"
)

// SetLogger configures the logger for tileview and all its sub-packages.
// By default nothing is logged. Pass nil to restore silence. Safe for
// concurrent use.
//
// Log levels used:
//   - [slog.LevelDebug]: buffer sizes, pipeline state, per-frame events
//   - [slog.LevelInfo]: lifecycle (adapter, image loaded, tiles uploaded)
//   - [slog.LevelWarn]: non-fatal release errors
//
// Example:
//
//	tileview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) { logging.Set(l) }

// Logger returns the current logger.
func Logger() *slog.Logger { return logging.Logger() }
