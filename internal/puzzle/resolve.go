// Package puzzle locates the backing puzzle executable. The binary itself is
// opaque to the gateway; every session simply runs it on a fresh terminal.
package puzzle

import (
	"fmt"
	"os"
	"path/filepath"
)

// fallbackPaths are the conventional build outputs checked when no explicit
// path is configured, in preference order, relative to the working directory.
var fallbackPaths = []string{
	filepath.Join("target", "release", "ssh_store"),
	filepath.Join("target", "debug", "ssh_store"),
}

// Resolve returns the absolute path of the puzzle binary. An explicit hint
// must exist; with no hint the conventional build outputs are checked. A miss
// either way is startup-fatal for the caller.
func Resolve(hint string) (string, error) {
	if hint != "" {
		abs, err := filepath.Abs(hint)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", hint, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return "", fmt.Errorf("puzzle binary not found: %s", abs)
		}
		return abs, nil
	}

	for _, rel := range fallbackPaths {
		abs, err := filepath.Abs(rel)
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err == nil {
			return abs, nil
		}
	}

	return "", fmt.Errorf("could not find puzzle binary; build it first with `cargo build --release` or pass an explicit path")
}
