// Package service implements the work-center dimension operations.
package service

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fleetmetrics/printledger/internal/workcenter/domain"
)

type inventoryFile struct {
	Printers []domain.WorkCenter `yaml:"printers"`
}

// loadInventory reads the dimension file fresh. Edits to the file take effect
// on the next reconciliation run without a restart.
func loadInventory(path string) ([]domain.WorkCenter, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInventory, err)
	}

	var file inventoryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInventory, err)
	}

	seen := map[string]bool{}
	for i, wc := range file.Printers {
		if wc.DeviceKey == "" {
			return nil, fmt.Errorf("%w: printers[%d] has no device_key", domain.ErrInvalidInventory, i)
		}
		if wc.WorkCenterID == "" {
			return nil, fmt.Errorf("%w: printers[%d] (%s) has no work_center_id", domain.ErrInvalidInventory, i, wc.DeviceKey)
		}
		if seen[wc.DeviceKey] {
			return nil, fmt.Errorf("%w: duplicate device_key %q", domain.ErrInvalidInventory, wc.DeviceKey)
		}
		seen[wc.DeviceKey] = true
	}
	return file.Printers, nil
}
