// Package repository persists analyses and ranks their moments.
package repository

import (
	"context"
	"time"

	"github.com/okian/wakepoint/internal/domain/model"
	"github.com/okian/wakepoint/pkg/metrics"
)

// Store provides read/write access to submitted analyses.
type Store interface {
	// Save inserts or replaces the analysis with the same id.
	Save(ctx context.Context, a model.Analysis) error

	// Get returns the analysis or ErrNotFound.
	Get(ctx context.Context, id string) (model.Analysis, error)

	// Delete removes the analysis. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns every stored analysis, newest submission first.
	List(ctx context.Context) ([]model.Analysis, error)

	// DeleteOlderThan removes analyses submitted before cutoff and returns their ids.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)

	// Count returns the number of stored analyses.
	Count(ctx context.Context) (int, error)

	Close() error
}

// observe records the latency and outcome of a store operation.
func observe(op string, start time.Time, err error) {
	metrics.RecordStoreOperation(op, err, float64(time.Since(start).Microseconds())/1000)
}
