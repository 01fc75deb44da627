package domain

import (
	"context"
	"errors"
	"time"
)

// AppendRequest captures everything recorded for one snapshot row.
type AppendRequest struct {
	DeviceID       int64
	CapturedAt     time.Time
	Model          string
	AdvertisedName string
	DeviceKey      string
	Counters       map[string]int64
}

type Service interface {
	Load(ctx context.Context) ([]Entry, error)
	ListByDevice(ctx context.Context, deviceID int64) ([]Entry, error)
	Append(ctx context.Context, req AppendRequest) (*Entry, error)
}

var ErrInvalidEntry = errors.New("invalid_ledger_entry")
