// Package procenv gathers the process-level inputs that accompany a
// command request: the environment table, the working directory, and the
// platform separator characters the server needs to interpret paths.
package procenv

import (
	"fmt"
	"os"
)

const (
	fileSeparatorKey = "NAILGUN_FILESEPARATOR"
	pathSeparatorKey = "NAILGUN_PATHSEPARATOR"
)

// Environ returns the environment entries to send with a command request,
// each formatted KEY=VALUE: the two platform separator entries first, then
// the process environment in process-table order.
func Environ() []string {
	env := os.Environ()
	entries := make([]string, 0, len(env)+2)
	entries = append(entries,
		fileSeparatorKey+"="+string(os.PathSeparator),
		pathSeparatorKey+"="+string(os.PathListSeparator),
	)
	return append(entries, env...)
}

// Workdir returns the absolute current working directory.
func Workdir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return wd, nil
}
