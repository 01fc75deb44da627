package domain

import (
	"context"
	"errors"
	"time"
)

// Observation is the identity slice of one probe result.
type Observation struct {
	DeviceKey      string
	Model          string
	AdvertisedName string
	SeenAt         time.Time
}

// MergeRequest unifies a previously observed key with an existing device.
type MergeRequest struct {
	AliasKey string `json:"alias_key"`
	DeviceID int64  `json:"device_id"`
	Note     string `json:"note"`
}

type Service interface {
	// EnsureSeeded loads the key-to-id mapping from the registry, rebuilding
	// it from ledger history when the registry table is empty.
	EnsureSeeded(ctx context.Context) error

	// Resolve returns the stable id for an observed key, allocating
	// max(existing)+1 on first sight. Resolution never fails; an empty key is
	// a valid degenerate key.
	Resolve(ctx context.Context, obs Observation) (int64, error)

	Merge(ctx context.Context, req MergeRequest) (*Alias, error)
	List(ctx context.Context) ([]Device, error)
	GetByID(ctx context.Context, id int64) (*Device, error)
}

var (
	ErrNotFound     = errors.New("device_not_found")
	ErrInvalidMerge = errors.New("invalid_merge")
)
