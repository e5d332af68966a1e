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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tombee/execmon/internal/cli"
	"github.com/tombee/execmon/pkg/errors"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// Exit codes. Any fatal condition exits non-zero; usage mistakes get the
// conventional distinct code.
const (
	exitFatal = 1
	exitUsage = 2
)

func main() {
	// SIGINT/SIGTERM cancel the context; either blocking point (event wait,
	// kill-script wait) then unwinds and the process exits non-zero. There
	// is no graceful-retry path.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCommand()
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate)

	handleExitError(rootCmd.ExecuteContext(ctx))
}

// handleExitError maps fatal errors to exit codes.
func handleExitError(err error) {
	if err == nil {
		return
	}

	// Interruption while blocked is an external shutdown request, not a
	// reportable failure; exit non-zero without echoing the context error.
	if errors.Is(err, context.Canceled) {
		os.Exit(exitFatal)
	}

	fmt.Fprintln(os.Stderr, err)

	var usageErr *errors.UsageError
	if errors.As(err, &usageErr) {
		os.Exit(exitUsage)
	}
	os.Exit(exitFatal)
}
