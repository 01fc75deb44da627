package service

import (
	usagedomain "github.com/fleetmetrics/printledger/internal/usage/domain"
	"github.com/fleetmetrics/printledger/internal/workcenter/domain"
)

// Enrich left-joins usage periods with the dimension table on device key.
// The usage side is authoritative: every period produces exactly one report
// row, matched or not, and inventory entries for unseen printers contribute
// nothing.
func Enrich(periods []usagedomain.Period, dims []domain.WorkCenter) []domain.ReportRow {
	byKey := make(map[string]domain.WorkCenter, len(dims))
	for _, wc := range dims {
		byKey[wc.DeviceKey] = wc
	}

	rows := make([]domain.ReportRow, 0, len(periods))
	for _, p := range periods {
		row := domain.ReportRow{
			DeviceID:  p.DeviceID,
			PeriodEnd: p.PeriodEnd,
			Channel:   p.Channel,
			DeviceKey: p.DeviceKey,
			Delta:     p.Delta,
		}
		if wc, ok := byKey[p.DeviceKey]; ok {
			row.WorkCenterID = ptr(wc.WorkCenterID)
			row.WorkCenter = ptr(wc.Name)
			row.Site = ptr(wc.Site)
			row.LineID = ptr(wc.LineID)
		}
		rows = append(rows, row)
	}
	return rows
}

func ptr(s string) *string { return &s }
