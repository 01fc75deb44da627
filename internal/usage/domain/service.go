package domain

import (
	"context"
	"time"
)

// Filter narrows a usage listing. Zero values mean no constraint.
type Filter struct {
	DeviceID int64
	Channel  string
	Since    time.Time
	Until    time.Time
}

type Service interface {
	// Rebuild derives the full usage table from the ledger and replaces the
	// previous derivation atomically. It returns the number of period rows
	// produced.
	Rebuild(ctx context.Context) (int, error)

	List(ctx context.Context, filter Filter) ([]Period, error)
}
