// Package badger stores blobs in a BadgerDB LSM tree.
package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/kpilens/internal/store"
)

type Config struct {
	// Path to the database directory. Ignored in memory mode.
	Path string

	// InMemory keeps everything in RAM (tests).
	InMemory bool

	// Logger receives badger's own log output. Nil silences it.
	Logger *zap.Logger
}

// badgerZapLogger routes badger's printf-style logging into zap.
type badgerZapLogger struct {
	sugar *zap.SugaredLogger
}

func (l badgerZapLogger) Errorf(msg string, args ...interface{})   { l.sugar.Errorf(msg, args...) }
func (l badgerZapLogger) Warningf(msg string, args ...interface{}) { l.sugar.Warnf(msg, args...) }
func (l badgerZapLogger) Infof(msg string, args ...interface{})    { l.sugar.Infof(msg, args...) }
func (l badgerZapLogger) Debugf(msg string, args ...interface{})   { l.sugar.Debugf(msg, args...) }

type Store struct {
	db *badger.DB
}

var _ store.Store = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerZapLogger{cfg.Logger.Named("badger").WithOptions(zap.AddCallerSkip(1)).Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	// Feature tables are written once per run and rarely rewritten.
	const memTableSize = 16 << 20
	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithNumMemtables(2).
		WithBlockCacheSize(memTableSize / 2).
		WithIndexCacheSize(memTableSize / 4).
		WithNumCompactors(2).
		WithValueLogFileSize(64 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), blob)
	})
	if err != nil {
		return fmt.Errorf("failed to save %q: %w", key, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", key, err)
	}
	return blob, nil
}

func (s *Store) Close() error { return s.db.Close() }
