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

package errors

import "fmt"

// UsageError represents invalid command-line invocation.
// Its message is printed to the operator verbatim, so it carries no
// field/value structure.
type UsageError struct {
	// Message is the human-readable error description
	Message string
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	return e.Message
}

// ScriptNotFoundError reports a kill script that does not exist on disk.
// Running the watch loop without a usable kill script is pointless, so this
// is always fatal at startup.
type ScriptNotFoundError struct {
	// Path is the kill script path that failed the existence check
	Path string
}

// Error implements the error interface.
func (e *ScriptNotFoundError) Error() string {
	return "Kill script does not exist"
}

// WatchError represents a failed or invalidated filesystem watch
// registration. Both cases are fatal: the loop has no retry policy.
type WatchError struct {
	// Dir is the watched directory
	Dir string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *WatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("watch on %s failed: %v", e.Dir, e.Cause)
	}
	return fmt.Sprintf("watch on %s failed", e.Dir)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *WatchError) Unwrap() error {
	return e.Cause
}
