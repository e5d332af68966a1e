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

package monitor

import (
	"os"
	"runtime"
)

const (
	// FileMode is the mode for the monitor file: rw-rw---- (owner+group
	// read/write, never executable, no world access).
	FileMode os.FileMode = 0o660

	// DirMode is the mode for created ancestor directories: rwxrwx---.
	DirMode os.FileMode = 0o770
)

// permStrategy abstracts POSIX-vs-not permission handling so the creation
// logic stays free of platform conditionals.
type permStrategy interface {
	createFile(path string) error
	createDir(path string) error
	dirLogMessage() string
}

// newPermStrategy probes the platform once; the result is held for the
// process lifetime.
func newPermStrategy() permStrategy {
	if runtime.GOOS == "windows" {
		return genericPerms{}
	}
	return posixPerms{}
}

// posixPerms creates paths with the restrictive owner+group modes. The
// explicit chmod after creation undoes whatever the process umask stripped
// from the mode passed at creation time.
type posixPerms struct{}

func (posixPerms) createFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FileMode)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chmod(path, FileMode)
}

func (posixPerms) createDir(path string) error {
	if err := os.Mkdir(path, DirMode); err != nil {
		return err
	}
	return os.Chmod(path, DirMode)
}

func (posixPerms) dirLogMessage() string {
	return "Creating posix directory"
}

// genericPerms is the fallback for platforms without POSIX permission bits.
// Creating the path readable and writable (and, for directories, executable)
// is the closest available primitive; no chmod is attempted.
type genericPerms struct{}

func (genericPerms) createFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return err
	}
	return f.Close()
}

func (genericPerms) createDir(path string) error {
	return os.Mkdir(path, 0o777)
}

func (genericPerms) dirLogMessage() string {
	return "Creating directory"
}
