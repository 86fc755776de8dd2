package telemetry

import (
	"context"

	"codeberg.org/veridian/veridianctl/internal/control"
)

// Collector records one controller snapshot per tick.
type Collector interface {
	Record(ctx context.Context, snapshot *control.Snapshot) error
	Close() error
}

// Repository persists snapshots.
type Repository interface {
	Record(snapshot *control.Snapshot) error
	Close() error
}
