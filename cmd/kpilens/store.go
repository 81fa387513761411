package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/kpilens/internal/config"
	"github.com/sanspareilsmyn/kpilens/internal/store"
	"github.com/sanspareilsmyn/kpilens/internal/store/badger"
	"github.com/sanspareilsmyn/kpilens/internal/store/memory"
	"github.com/sanspareilsmyn/kpilens/internal/store/sqlite"
)

// openStore builds the configured artifact store.
func openStore(cfg config.StoreConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreBadger:
		s, err := badger.New(badger.Config{Path: cfg.Path, Logger: logger.Named("store")})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreSQLite:
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStoreBackend, cfg.Backend)
	}
}
