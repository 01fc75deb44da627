package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ewsUsagePage = `<html><body><table>
<tr><td id="UsagePage.ImpressionsByMediaSizeTable.Print.A4.Total">12,345</td></tr>
<tr><td id="UsagePage.ImpressionsByMediaSizeTable.Print.A5.Total">678</td></tr>
</table></body></html>`

const ewsUsagePageNoA5 = `<html><body><table>
<tr><td id="UsagePage.ImpressionsByMediaSizeTable.Print.A4.Total">500</td></tr>
</table></body></html>`

const ewsUsagePageRestyled = `<html><body><table>
<tr><td id="SomeFutureFirmwareCell">500</td></tr>
</table></body></html>`

const ewsStatusPage = `<html><body><p id="HomeDeviceIp">10.1.2.3</p></body></html>`
const ewsInfoPage = `<html><body><p id="DeviceName">HP LaserJet MFP M528</p></body></html>`
const ewsNetworkPage = `<html><body><input id="IPv4_HostName" value="NPI8A3C21"/></body></html>`

func newEWSServer(t *testing.T, usageBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.RequestURI(), "InternalPages"):
			_, _ = w.Write([]byte(usageBody))
		case strings.Contains(r.URL.Path, "DeviceStatus"):
			_, _ = w.Write([]byte(ewsStatusPage))
		case strings.Contains(r.URL.Path, "DeviceInformation"):
			_, _ = w.Write([]byte(ewsInfoPage))
		case strings.Contains(r.URL.Path, "network_id"):
			_, _ = w.Write([]byte(ewsNetworkPage))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestHPEWSProbe(t *testing.T) {
	srv := newEWSServer(t, ewsUsagePage)
	defer srv.Close()

	adapter := NewHPEWSAdapter(srv.Client())
	snap, err := adapter.Probe(context.Background(), strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)

	assert.Equal(t, "10.1.2.3", snap.DeviceKey)
	assert.Equal(t, "HP LaserJet MFP M528", snap.Model)
	assert.Equal(t, "NPI8A3C21", snap.AdvertisedName)
	assert.Equal(t, int64(12345), snap.Counters[ChannelA4])
	assert.Equal(t, int64(678), snap.Counters[ChannelA5])
}

func TestHPEWSProbeMissingA5DefaultsToZero(t *testing.T) {
	srv := newEWSServer(t, ewsUsagePageNoA5)
	defer srv.Close()

	adapter := NewHPEWSAdapter(srv.Client())
	snap, err := adapter.Probe(context.Background(), strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)

	assert.Equal(t, int64(500), snap.Counters[ChannelA4])
	count, ok := snap.Counters[ChannelA5]
	assert.True(t, ok)
	assert.Equal(t, int64(0), count)
}

func TestHPEWSProbeUnrecognizedUsagePageLeavesCountersAbsent(t *testing.T) {
	srv := newEWSServer(t, ewsUsagePageRestyled)
	defer srv.Close()

	// a layout with no known cells must not invent an A5 zero, which a
	// later snapshot would read back as a counter reset
	adapter := NewHPEWSAdapter(srv.Client())
	snap, err := adapter.Probe(context.Background(), strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)

	_, ok := snap.Counters[ChannelA4]
	assert.False(t, ok)
	_, ok = snap.Counters[ChannelA5]
	assert.False(t, ok)
}

func TestHPEWSProbeUnreachable(t *testing.T) {
	srv := newEWSServer(t, ewsUsagePage)
	srv.Close() // probe against a dead server

	adapter := NewHPEWSAdapter(http.DefaultClient)
	_, err := adapter.Probe(context.Background(), strings.TrimPrefix(srv.URL, "http://"))
	require.ErrorIs(t, err, ErrProbeFailed)
}

func TestRegistryForKind(t *testing.T) {
	registry := NewRegistry(NewHPEWSAdapter(http.DefaultClient), NewHPM501Adapter(http.DefaultClient))

	adapter, err := registry.ForKind("hp-ews")
	require.NoError(t, err)
	assert.Equal(t, KindHPEWS, adapter.Kind())

	// empty kind falls back to the default family
	adapter, err = registry.ForKind("")
	require.NoError(t, err)
	assert.Equal(t, KindHPEWS, adapter.Kind())

	_, err = registry.ForKind("lexmark")
	require.ErrorIs(t, err, ErrProbeFailed)
}
