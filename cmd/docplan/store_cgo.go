//go:build cgo

package main

import (
	"go.uber.org/zap"

	"github.com/dusk-indust/docplan/internal/store"
)

func newStore(path string, logger *zap.Logger) (store.Store, error) {
	logger.Debug("Opening kuzu plan store", zap.String("path", path))
	return store.NewKuzuFileStore(path)
}
