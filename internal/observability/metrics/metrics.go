package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments for the reconciliation pipeline.
type Metrics struct {
	probes        metric.Int64Counter
	ledgerAppends metric.Int64Counter
	usagePeriods  metric.Int64Counter
	runs          metric.Int64Counter
	runDuration   metric.Float64Histogram
	newDevices    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "printledger"
	}
	meter := provider.Meter(name)

	probes, err := meter.Int64Counter("printledger_probes_total",
		metric.WithDescription("Device probes attempted, by adapter and outcome."))
	if err != nil {
		return nil, err
	}
	ledgerAppends, err := meter.Int64Counter("printledger_ledger_entries_total",
		metric.WithDescription("Snapshot rows appended to the ledger."))
	if err != nil {
		return nil, err
	}
	usagePeriods, err := meter.Int64Counter("printledger_usage_periods_total",
		metric.WithDescription("Usage period rows produced by the last rebuild."))
	if err != nil {
		return nil, err
	}
	runs, err := meter.Int64Counter("printledger_reconcile_runs_total",
		metric.WithDescription("Reconciliation runs, by outcome."))
	if err != nil {
		return nil, err
	}
	runDuration, err := meter.Float64Histogram("printledger_reconcile_duration_seconds",
		metric.WithDescription("Wall time of one reconciliation run."))
	if err != nil {
		return nil, err
	}
	newDevices, err := meter.Int64Counter("printledger_devices_registered_total",
		metric.WithDescription("Devices assigned a new identity."))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		probes:        probes,
		ledgerAppends: ledgerAppends,
		usagePeriods:  usagePeriods,
		runs:          runs,
		runDuration:   runDuration,
		newDevices:    newDevices,
	}, nil
}

func (m *Metrics) RecordProbe(ctx context.Context, adapter string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.probes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("adapter", adapter),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordLedgerAppend(ctx context.Context, count int) {
	if m == nil {
		return
	}
	m.ledgerAppends.Add(ctx, int64(count))
}

func (m *Metrics) RecordUsagePeriods(ctx context.Context, count int) {
	if m == nil {
		return
	}
	m.usagePeriods.Add(ctx, int64(count))
}

func (m *Metrics) RecordRun(ctx context.Context, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.runDuration.Record(ctx, elapsed.Seconds())
}

func (m *Metrics) RecordNewDevice(ctx context.Context) {
	if m == nil {
		return
	}
	m.newDevices.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
