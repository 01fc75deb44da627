package domain

import (
	"context"
	"errors"
)

type Service interface {
	// ReloadInventory reads the inventory file and replaces the work_centers
	// table with its contents.
	ReloadInventory(ctx context.Context) (int, error)

	// RebuildReport joins the current usage derivation against the dimension
	// table and replaces the report. Every usage row survives the join;
	// unmatched rows carry null attribution.
	RebuildReport(ctx context.Context) (int, error)

	List(ctx context.Context) ([]WorkCenter, error)
	Report(ctx context.Context) ([]ReportRow, error)
}

var ErrInvalidInventory = errors.New("invalid_inventory")
