package d3d12

import (
	"log/slog"

	"github.com/gogpu/hello"
)

// slogger returns the shared logger.
// All logging in d3d12 goes through this function.
func slogger() *slog.Logger { return hello.Logger() }
