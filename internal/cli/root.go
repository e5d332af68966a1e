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

// Package cli wires the watchdog together: argument validation, logging
// setup, permission bootstrap, and the watch loop.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/execmon/internal/log"
	"github.com/tombee/execmon/internal/monitor"
	"github.com/tombee/execmon/internal/trigger"
	"github.com/tombee/execmon/internal/watcher"
	"github.com/tombee/execmon/pkg/errors"
)

// NewRootCommand creates the root Cobra command for execmon.
func NewRootCommand() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)

	cmd := &cobra.Command{
		Use:   "execmon <monitor-file> [<kill-script>]",
		Short: "execmon - kill-file watchdog",
		Long: `execmon watches a monitor file and runs a kill script when it is deleted.

The kill script runs with execmon's own privileges, so a user who can delete
the monitor file - but cannot stop a privileged long-running service - can
request a controlled shutdown by deleting it. After the script finishes the
monitor file is recreated and watching resumes.

The monitor file and any missing ancestor directories are created at startup
with owner+group-only permissions (rw-rw---- and rwxrwx---). Detection relies
on kernel filesystem notification and only works on local disks.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
		Args:          cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := log.FromEnv()
			if logLevel != "" {
				cfg.Level = logLevel
			}
			if logFormat != "" {
				cfg.Format = log.Format(logFormat)
			}
			logger := log.New(cfg)
			slog.SetDefault(logger)

			return run(cmd.Context(), args, logger)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")

	return cmd
}

// run is the watchdog entrypoint. It returns only on fatal conditions; the
// watch loop has no clean exit.
func run(ctx context.Context, args []string, logger *slog.Logger) error {
	if len(args) == 0 {
		return &errors.UsageError{Message: "No monitor file or kill script specified"}
	}

	var scriptArg string
	if len(args) < 2 {
		// Non-fatal here; the existence check right below is what fails.
		logger.Warn("No kill script specified")
	} else {
		scriptArg = args[1]
	}

	// The kill script must exist before any directory or file is created:
	// running the loop without a usable kill script is pointless.
	script, err := resolveScript(scriptArg)
	if err != nil {
		return err
	}

	mon, err := monitor.New(args[0], logger)
	if err != nil {
		return err
	}
	mon.Bootstrap()

	w, err := watcher.New(mon.Path(), logger)
	if err != nil {
		return err
	}
	defer w.Close()

	handler := trigger.NewHandler(mon, script, logger)

	logger.Debug("watchdog running",
		slog.String(log.MonitorKey, mon.Path()),
		slog.String(log.ScriptKey, script))

	return w.Run(ctx, func() error {
		return handler.Fire(ctx)
	})
}

// resolveScript validates and normalizes the kill script path.
func resolveScript(arg string) (string, error) {
	if arg == "" {
		return "", &errors.ScriptNotFoundError{Path: arg}
	}
	script, err := monitor.Resolve(arg)
	if err != nil {
		return "", errors.Wrap(err, "resolving kill script path")
	}
	if _, err := os.Stat(script); err != nil {
		return "", &errors.ScriptNotFoundError{Path: arg}
	}
	return script, nil
}
