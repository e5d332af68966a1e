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

// Package watcher implements the deletion watch loop. It registers a single
// directory-scoped fsnotify subscription on the monitor file's parent
// directory and dispatches deletions of exactly that file to a handler,
// synchronously, one at a time.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/tombee/execmon/internal/log"
	"github.com/tombee/execmon/internal/monitor"
	"github.com/tombee/execmon/pkg/errors"
)

// Watcher wraps an fsnotify watcher scoped to one directory, filtering for
// deletions of one exact path.
type Watcher struct {
	path   string // absolute, normalized monitor file path
	dir    string
	fsw    *fsnotify.Watcher
	logger *slog.Logger
}

// New registers a watch on the parent directory of monitorPath. The
// directory, not the file, is watched: the file may not exist yet, and
// deletion events are reported against the containing directory anyway.
// Registration failure is returned to the caller and is fatal to the
// program.
func New(monitorPath string, logger *slog.Logger) (*Watcher, error) {
	path, err := monitor.Resolve(monitorPath)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving watch path %s", monitorPath)
	}
	dir := filepath.Dir(path)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating fsnotify watcher")
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, &errors.WatchError{Dir: dir, Cause: err}
	}

	return &Watcher{
		path:   path,
		dir:    dir,
		fsw:    fsw,
		logger: log.WithComponent(logger, "watcher"),
	}, nil
}

// Path returns the absolute monitor file path the watcher filters for.
func (w *Watcher) Path() string {
	return w.path
}

// Run blocks on the kernel event stream and invokes onDelete for each
// deletion of the monitor file, waiting for it to fully complete before
// reading the next event. This inline dispatch is what guarantees at most
// one concurrent kill-script run; there is no worker pool and no queue.
//
// Run never returns nil: it returns ctx.Err() on interruption, an error from
// onDelete if the handler decides one is fatal, or a WatchError when the
// subscription dies (the watched directory was removed or the kernel stream
// closed). Every return is fatal to the program; there is no retry.
func (w *Watcher) Run(ctx context.Context, onDelete func() error) error {
	w.logger.Debug("watching for deletions", slog.String(log.DirKey, w.dir))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return &errors.WatchError{Dir: w.dir, Cause: errors.New("event stream closed")}
			}
			if !isDelete(event) {
				continue
			}
			name, err := monitor.Resolve(event.Name)
			if err != nil {
				continue
			}
			if name == w.dir {
				// The watched directory itself was deleted or renamed away.
				// inotify reports this as an event on the watch root without
				// closing the stream, but the subscription can never deliver
				// another event, so it is as dead as a closed one.
				return &errors.WatchError{Dir: w.dir, Cause: errors.New("watched directory removed")}
			}
			if name != w.path {
				// Unrelated deletion in the same directory.
				continue
			}
			if err := onDelete(); err != nil {
				return err
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return &errors.WatchError{Dir: w.dir, Cause: errors.New("error stream closed")}
			}
			return &errors.WatchError{Dir: w.dir, Cause: err}
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// isDelete narrows the event surface to deletions. Rename counts: on
// inotify a file moved out of the watched directory is reported as Rename,
// and it is gone from the directory exactly as if deleted.
func isDelete(event fsnotify.Event) bool {
	return event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename)
}
