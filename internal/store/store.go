package store

import (
	"context"

	"github.com/alfredjeanlab/corrlog/internal/model"
)

// ConfigStore defines the persistence interface for correlation configs.
type ConfigStore interface {
	// Exists reports whether at least one config row is present.
	Exists(ctx context.Context) (bool, error)
	// SeedDefaults inserts the default rows in one transaction. Rows that
	// already exist are left as they are.
	SeedDefaults(ctx context.Context) error
	// GetAll returns every config with its properties.
	GetAll(ctx context.Context) ([]model.CorrelationConfig, error)
	// UpdateAll writes the flags and properties of the given configs in a
	// single transaction. Any invalid property aborts the whole write.
	UpdateAll(ctx context.Context, configs []model.CorrelationConfig) (bool, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
