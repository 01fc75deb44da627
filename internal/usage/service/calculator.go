// Package service derives usage periods from ledger history.
package service

import (
	"sort"

	ledgerdomain "github.com/fleetmetrics/printledger/internal/ledger/domain"
	"github.com/fleetmetrics/printledger/internal/usage/domain"
)

// ComputePeriods walks the ledger in append order and emits one period row
// per device, channel and consecutive snapshot pair.
//
// Counters are cumulative odometers, so the normal delta is curr-prev. A
// current reading below the previous one means the counter was reset (board
// swap, NVRAM clear); the pages printed since the reset are at least the new
// reading, so the delta clamps to curr rather than going negative. A channel
// missing or unparseable on either side of the pair is skipped. The first
// snapshot of a device yields no rows since there is nothing to diff against.
//
// Appending is allowed to stamp two snapshots of one device with the same
// capture time. Periods landing on an already-emitted (device, period end,
// channel) key fold into that row by summing deltas, so the rebuilt table
// never sees a duplicate primary key.
func ComputePeriods(entries []ledgerdomain.Entry) []domain.Period {
	type periodKey struct {
		deviceID  int64
		periodEnd int64
		channel   string
	}
	prev := map[int64]ledgerdomain.Entry{}
	emitted := map[periodKey]int{}
	var periods []domain.Period

	for _, curr := range entries {
		p, seen := prev[curr.DeviceID]
		prev[curr.DeviceID] = curr
		if !seen {
			continue
		}

		for _, channel := range sortedChannels(curr) {
			currCount, ok := curr.Counter(channel)
			if !ok {
				continue
			}
			prevCount, ok := p.Counter(channel)
			if !ok {
				continue
			}

			delta := currCount - prevCount
			if currCount < prevCount {
				delta = currCount
			}

			key := periodKey{curr.DeviceID, curr.CapturedAt.UnixNano(), channel}
			if i, ok := emitted[key]; ok {
				periods[i].Delta += delta
				periods[i].DeviceKey = curr.DeviceKey
				continue
			}
			emitted[key] = len(periods)
			periods = append(periods, domain.Period{
				DeviceID:  curr.DeviceID,
				PeriodEnd: curr.CapturedAt,
				Channel:   channel,
				DeviceKey: curr.DeviceKey,
				Delta:     delta,
			})
		}
	}
	return periods
}

func sortedChannels(e ledgerdomain.Entry) []string {
	channels := make([]string, 0, len(e.Counters))
	for channel := range e.Counters {
		channels = append(channels, channel)
	}
	sort.Strings(channels)
	return channels
}
