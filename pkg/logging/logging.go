// Package logging provides the engine's default zerolog wiring: a package
// level logger every worker falls back to when a node is built without an
// explicit one, plus the helpers for attaching the per-node fields used
// across pkg/graph's Debug/Warn/Error call sites.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	current = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
)

// Default returns the package-level logger used by any node built without
// its own.
func Default() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetDefault replaces the package-level logger, e.g. to raise verbosity
// from a CLI flag or redirect output in tests.
func SetDefault(l zerolog.Logger) {
	mu.Lock()
	current = l
	mu.Unlock()
}

// Discard returns a logger that drops everything, for tests that don't
// want engine chatter on stderr.
func Discard() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// ForNode returns a child logger carrying node_id/node_type fields, the
// structured equivalent of pyflyde's "%s: ..." log-site prefix in node.py.
func ForNode(l zerolog.Logger, nodeID, nodeType string) zerolog.Logger {
	return l.With().Str("node_id", nodeID).Str("node_type", nodeType).Logger()
}
