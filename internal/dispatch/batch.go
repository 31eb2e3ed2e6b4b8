package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// OutputList is an append-only, concurrency-safe collection of
// rendered output paths tagged for batch submission. Append order
// reflects completion order across workers, not enumeration order.
type OutputList struct {
	mu    sync.Mutex
	paths []string
}

// NewOutputList creates an empty output list.
func NewOutputList() *OutputList {
	return &OutputList{}
}

// Append records one output path.
func (l *OutputList) Append(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, path)
}

// Paths returns a copy of the recorded paths in append order.
func (l *OutputList) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.paths...)
}

// WriteBatchScript emits one submission script covering every
// recorded output: for each path, the script changes into the path's
// directory, invokes the submission command with the file's base
// name, and returns to the previous directory.
func WriteBatchScript(path, submitCommand string, outputs []string) error {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")

	for _, out := range outputs {
		fmt.Fprintf(&b, "\ncd %s\n", filepath.Dir(out))
		fmt.Fprintf(&b, "%s %s\n", submitCommand, filepath.Base(out))
		b.WriteString("cd - > /dev/null\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o755); err != nil {
		return fmt.Errorf("write batch script: %w", err)
	}
	return nil
}
