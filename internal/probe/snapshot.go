// Package probe turns a live printer's embedded web server into a normalized
// counter snapshot. One adapter exists per device family; the collector treats
// them uniformly through the Adapter interface.
package probe

// Channel names reported by the supported device families.
const (
	ChannelA4 = "A4"
	ChannelA5 = "A5"
)

// Snapshot is one probe result for one device. The collector stamps the
// capture time; adapters only report what the device says about itself.
// Counters hold cumulative page counts per channel; a channel that could not
// be read is absent from the map rather than zeroed.
type Snapshot struct {
	DeviceKey      string
	Model          string
	AdvertisedName string
	Counters       map[string]int64
}
