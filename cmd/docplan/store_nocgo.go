//go:build !cgo

package main

import (
	"go.uber.org/zap"

	"github.com/dusk-indust/docplan/internal/store"
)

// newStore falls back to an in-memory store because the kuzu driver needs
// cgo. Plans do not outlive the process.
func newStore(path string, logger *zap.Logger) (store.Store, error) {
	logger.Warn("Built without cgo; plans are kept in memory only", zap.String("path", path))
	return store.NewMemStore(), nil
}
