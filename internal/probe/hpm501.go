package probe

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/net/html"
)

const KindHPM501 = "hp-m501"

// Section headings and cell class on the M501dn configuration pages. The
// firmware serves localized headings; the fleet runs the French build.
const (
	m501ClassItemFont    = "itemFont"
	m501HeadingCounts    = "Impressions"
	m501HeadingNetworkID = "Identification réseau"
)

// HPM501Adapter scrapes the LaserJet M501dn family, which exposes a flat
// configuration page instead of the enterprise usage table. The family
// reports a single impressions total, recorded on the A5 channel; see the
// fleet inventory for which sites run these devices.
type HPM501Adapter struct {
	client *http.Client
}

func NewHPM501Adapter(client *http.Client) *HPM501Adapter {
	return &HPM501Adapter{client: client}
}

func (a *HPM501Adapter) Kind() string { return KindHPM501 }

func (a *HPM501Adapter) Probe(ctx context.Context, address string) (*Snapshot, error) {
	configURL := fmt.Sprintf("http://%s/info_configuration.html?tab=Home&menu=DevConfig", address)
	statusURL := fmt.Sprintf("http://%s/info_config_network.html?tab=Home&menu=NetConfig", address)
	networkURL := fmt.Sprintf("http://%s/info_config_network.html?tab=Networking&menu=NetConfig", address)

	configDoc, err := fetchDocument(ctx, a.client, configURL)
	if err != nil {
		return nil, err
	}

	counters := map[string]int64{ChannelA4: 0}
	if heading := findHeading(configDoc, m501HeadingCounts); heading != nil {
		if cell := nextByAttr(configDoc, heading, "td", "class", m501ClassItemFont); cell != nil {
			if count, err := parseCount(textContent(cell)); err == nil {
				counters[ChannelA5] = count
			}
		}
	}

	snapshot := &Snapshot{
		DeviceKey: address,
		Counters:  counters,
	}

	if cells := findAllByAttr(configDoc, "td", "class", m501ClassItemFont); len(cells) > 0 {
		snapshot.Model = textContent(cells[0])
	}

	if doc, err := fetchDocument(ctx, a.client, statusURL); err == nil {
		if cells := findAllByAttr(doc, "td", "class", m501ClassItemFont); len(cells) >= 2 {
			snapshot.DeviceKey = textContent(cells[1])
		}
	}
	if doc, err := fetchDocument(ctx, a.client, networkURL); err == nil {
		if heading := findHeading(doc, m501HeadingNetworkID); heading != nil {
			if cell := nextByAttr(doc, heading, "td", "class", m501ClassItemFont); cell != nil {
				snapshot.AdvertisedName = textContent(cell)
			}
		}
	}

	return snapshot, nil
}

func findHeading(root *html.Node, label string) *html.Node {
	for _, h := range findAllByAttr(root, "h3", "class", "subTitle") {
		if textContent(h) == label {
			return h
		}
	}
	return nil
}
