// Package logging sets up the process-wide logger: stdout always, plus an
// append-only log file when one is configured.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// Init points the standard logger at stdout and, when path is non-empty, a
// log file as well. File problems degrade to stdout-only logging; they are
// never fatal.
func Init(path string) {
	if path == "" {
		return
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("WARNING: cannot create log directory: %v", err)
		return
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("WARNING: cannot open log file %s: %v", path, err)
		return
	}

	log.SetOutput(io.MultiWriter(os.Stdout, f))
	log.Printf("logging to file: %s", path)
}
