package window

import (
	"log/slog"

	"github.com/gogpu/tileview/internal/logging"
)

// Logger returns the shared logger. Provider packages log through it;
// tileview.SetLogger configures it.
func Logger() *slog.Logger { return logging.Logger() }
