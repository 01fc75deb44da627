package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const KindHPEWS = "hp-ews"

// Element ids on the HP embedded web server pages.
const (
	ewsIDDeviceIP   = "HomeDeviceIp"
	ewsIDDeviceName = "DeviceName"
	ewsIDHostName   = "IPv4_HostName"
	ewsIDCountA4    = "UsagePage.ImpressionsByMediaSizeTable.Print.A4.Total"
	ewsIDCountA5    = "UsagePage.ImpressionsByMediaSizeTable.Print.A5.Total"
)

// HPEWSAdapter scrapes HP LaserJet devices exposing the enterprise web server
// (DeviceInformation / InternalPages / DeviceStatus pages).
type HPEWSAdapter struct {
	client *http.Client
}

func NewHPEWSAdapter(client *http.Client) *HPEWSAdapter {
	return &HPEWSAdapter{client: client}
}

func (a *HPEWSAdapter) Kind() string { return KindHPEWS }

func (a *HPEWSAdapter) Probe(ctx context.Context, address string) (*Snapshot, error) {
	infoURL := fmt.Sprintf("http://%s/hp/device/DeviceInformation/View", address)
	usageURL := fmt.Sprintf("http://%s/hp/device/InternalPages/Index?id=UsagePage", address)
	statusURL := fmt.Sprintf("http://%s/hp/device/DeviceStatus/Index", address)
	networkURL := fmt.Sprintf("http://%s/network_id.htm", address)

	usageDoc, err := fetchDocument(ctx, a.client, usageURL)
	if err != nil {
		return nil, err
	}

	counters := map[string]int64{}
	a4Cell := findByAttr(usageDoc, "td", "id", ewsIDCountA4)
	if a4Cell != nil {
		if count, err := parseCount(textContent(a4Cell)); err == nil {
			counters[ChannelA4] = count
		}
	}
	if cell := findByAttr(usageDoc, "td", "id", ewsIDCountA5); cell != nil {
		if count, err := parseCount(textContent(cell)); err == nil {
			counters[ChannelA5] = count
		}
	} else if a4Cell != nil {
		// The A4 cell proves the usage table rendered, so a missing A5 row
		// means the device has no A5 tray and the counter is a true zero.
		// Without that proof the page layout is unrecognized and the channel
		// stays absent; writing 0 here would fake a counter reset downstream.
		counters[ChannelA5] = 0
	}

	snapshot := &Snapshot{
		DeviceKey: address,
		Counters:  counters,
	}

	// Identity pages are best effort. The probe already succeeded on the
	// counter page; a missing name or model only degrades the snapshot.
	if doc, err := fetchDocument(ctx, a.client, statusURL); err == nil {
		if ip := textContent(findByAttr(doc, "p", "id", ewsIDDeviceIP)); ip != "" {
			snapshot.DeviceKey = strings.TrimSpace(ip)
		}
	}
	if doc, err := fetchDocument(ctx, a.client, infoURL); err == nil {
		snapshot.Model = textContent(findByAttr(doc, "p", "id", ewsIDDeviceName))
	}
	if doc, err := fetchDocument(ctx, a.client, networkURL); err == nil {
		snapshot.AdvertisedName = strings.TrimSpace(attrValue(findByAttr(doc, "input", "id", ewsIDHostName), "value"))
	}

	return snapshot, nil
}
