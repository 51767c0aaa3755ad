package sheets

import (
	"context"

	"finance/internal/core"
)

// Ports for the persistence adapters. Every backend stores the whole ledger:
// Read returns the full snapshot and Write replaces it, both tables or
// neither.
type (
	SnapshotReader interface {
		Read(ctx context.Context) (core.Snapshot, error)
	}

	SnapshotWriter interface {
		Write(ctx context.Context, s core.Snapshot) error
	}

	Backend interface {
		SnapshotReader
		SnapshotWriter
	}

	// Pinger is implemented by backends that can report readiness without a
	// full read.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
