package gpu

import (
	"log/slog"

	"github.com/gogpu/tileview/internal/logging"
)

// slogger returns the shared logger. All logging in internal/gpu goes
// through this function.
func slogger() *slog.Logger { return logging.Logger() }
