// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halnative

import (
	"log/slog"

	"github.com/gogpu/hello"
)

// slogger returns the package logger, which follows hello.SetLogger.
func slogger() *slog.Logger {
	return hello.Logger()
}
