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

// Package monitor owns the monitor file's lifecycle: resolving its path to a
// canonical form, creating it and its directory chain with restrictive
// permissions at startup, and recreating it after each trigger.
package monitor

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tombee/execmon/internal/log"
	"github.com/tombee/execmon/pkg/errors"
)

// Monitor tracks a single monitor file. All paths held by a Monitor are
// absolute and normalized; the watch loop compares event paths against
// Path() for exact equality, so every path must go through Resolve.
type Monitor struct {
	path   string
	logger *slog.Logger
	perms  permStrategy
}

// Resolve normalizes a path to its absolute, clean form. The registration
// path and event paths must use the same normalization or deletion events
// will silently fail to compare equal to the monitor path.
func Resolve(path string) (string, error) {
	return filepath.Abs(path)
}

// New creates a Monitor for the given path. The path is resolved once here;
// the platform permission strategy is probed once here as well.
func New(path string, logger *slog.Logger) (*Monitor, error) {
	abs, err := Resolve(path)
	if err != nil {
		return nil, errors.Wrap(err, "resolving monitor path")
	}
	return &Monitor{
		path:   abs,
		logger: logger,
		perms:  newPermStrategy(),
	}, nil
}

// Path returns the absolute, normalized monitor file path.
func (m *Monitor) Path() string {
	return m.path
}

// Dir returns the monitor file's parent directory.
func (m *Monitor) Dir() string {
	return filepath.Dir(m.path)
}

// Bootstrap ensures the monitor file and its directory chain exist with the
// restrictive modes. A file that already exists at startup is left entirely
// alone, permissions included. Failures are advisory, not fatal: if the
// directory truly could not be created, the watch registration fails on its
// own right after.
func (m *Monitor) Bootstrap() {
	if m.exists() {
		return
	}
	m.logger.Info("Creating monitor file")
	if err := m.ensureDir(m.Dir()); err != nil {
		m.logger.Warn("Couldn't create monitor file", log.Error(err))
		return
	}
	if err := m.createFile(); err != nil {
		m.logger.Warn("Couldn't create monitor file", log.Error(err))
	}
}

// Recreate restores the monitor file after a trigger, with the same mode as
// the initial bootstrap. The directory chain is never deleted by the
// watchdog, so only the file is recreated.
func (m *Monitor) Recreate() error {
	return m.createFile()
}

func (m *Monitor) exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// createFile is idempotent: an existing file is a no-op, and permissions are
// set only on the create path.
func (m *Monitor) createFile() error {
	if m.exists() {
		return nil
	}
	return m.perms.createFile(m.path)
}

// ensureDir walks from the nearest existing ancestor down to dir, creating
// each missing directory. Iterative rather than recursive so deeply nested
// paths cannot grow the stack. Existing directories are left untouched.
func (m *Monitor) ensureDir(dir string) error {
	var missing []string
	for p := dir; ; {
		if _, err := os.Stat(p); err == nil {
			break
		}
		missing = append(missing, p)
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}
	for i := len(missing) - 1; i >= 0; i-- {
		m.logger.Info(m.perms.dirLogMessage(), slog.String(log.DirKey, missing[i]))
		if err := m.perms.createDir(missing[i]); err != nil && !os.IsExist(err) {
			return err
		}
	}
	return nil
}
