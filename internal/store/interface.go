package store

import (
	"context"

	"codeberg.org/mutker/energyd/internal/aggregate"
)

// Repository defines the interface for durable aggregate storage. Store
// is atomic per call: either every record in the batch is written or
// none are.
type Repository interface {
	Store(ctx context.Context, records []aggregate.Record) error
	Close() error
}
