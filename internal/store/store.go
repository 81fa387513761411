// Package store persists feature tables and evaluation reports as opaque blobs keyed by run.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("key not found")

// Store is a key/blob store. Save overwrites an existing key.
type Store interface {
	Save(ctx context.Context, key string, blob []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Close() error
}

// NewRunID returns a fresh identifier for one offline run.
func NewRunID() string { return uuid.NewString() }

func FeaturesKey(runID string) string { return "features/" + runID }

func ReportKey(runID string) string { return "reports/" + runID }
