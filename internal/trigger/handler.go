// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package trigger runs the kill script when the monitor file is deleted and
// recreates the monitor file afterwards, unconditionally.
package trigger

import (
	"context"
	"log/slog"
	"os"
	"os/exec"

	"github.com/tombee/execmon/internal/log"
	"github.com/tombee/execmon/internal/monitor"
)

// Handler executes the kill script and restores the monitor file. It is
// invoked inline from the watch loop, so at most one kill script runs at a
// time without any locking.
type Handler struct {
	mon    *monitor.Monitor
	script string
	logger *slog.Logger
}

// NewHandler creates a Handler for the given monitor and resolved kill
// script path.
func NewHandler(mon *monitor.Monitor, script string, logger *slog.Logger) *Handler {
	return &Handler{
		mon:    mon,
		script: script,
		logger: logger,
	}
}

// Fire runs the kill script to completion through a command shell with the
// watchdog's own standard streams, then recreates the monitor file.
//
// Recreation is deferred, so it happens whether the script exited zero,
// exited non-zero, or never started; the script's exit status is discarded.
// The only error Fire returns is ctx cancellation while waiting for the
// child, which the caller treats as an external shutdown signal and turns
// into a non-zero process exit. Recreation has already run by then.
func (h *Handler) Fire(ctx context.Context) error {
	h.logger.Info("Kill triggered")
	defer h.recreate()

	// A shell invocation, not a direct exec: the kill script may be a shell
	// script relying on builtins, pipelines, or PATH lookup.
	cmd := exec.CommandContext(ctx, "sh", "-c", h.script)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Non-zero exit and failure to start are treated alike: the script's
		// outcome is not this program's concern.
		h.logger.Debug("kill script did not run cleanly", log.Error(err))
	}
	return nil
}

func (h *Handler) recreate() {
	h.logger.Info("Recreating monitor file")
	if err := h.mon.Recreate(); err != nil {
		h.logger.Warn("Couldn't recreate monitor file", log.Error(err))
	}
}
