package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fleetmetrics/printledger/internal/config"
	"go.uber.org/fx"
)

// ErrProbeFailed wraps any transport or extraction failure for one device.
// The collector logs it and skips the device for the run.
var ErrProbeFailed = errors.New("probe_failed")

// Adapter probes one device family.
type Adapter interface {
	Kind() string
	Probe(ctx context.Context, address string) (*Snapshot, error)
}

// Registry resolves the adapter configured for a fleet entry.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Kind()] = a
	}
	return &Registry{adapters: m}
}

// ForKind returns the adapter registered under kind. An empty kind defaults
// to the hp-ews family, matching the most common fleet hardware.
func (r *Registry) ForKind(kind string) (Adapter, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = KindHPEWS
	}
	adapter, ok := r.adapters[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown adapter kind %q", ErrProbeFailed, kind)
	}
	return adapter, nil
}

func newHTTPClient(cfg config.Config) *http.Client {
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func provideRegistry(cfg config.Config) *Registry {
	client := newHTTPClient(cfg)
	return NewRegistry(
		NewHPEWSAdapter(client),
		NewHPM501Adapter(client),
	)
}

// Module wires the probe adapter registry.
var Module = fx.Module("probe",
	fx.Provide(provideRegistry),
)
