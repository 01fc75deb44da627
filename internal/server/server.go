// Package server exposes the reconciliation state over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fleetmetrics/printledger/internal/collector"
	"github.com/fleetmetrics/printledger/internal/config"
	devicedomain "github.com/fleetmetrics/printledger/internal/device/domain"
	ledgerdomain "github.com/fleetmetrics/printledger/internal/ledger/domain"
	"github.com/fleetmetrics/printledger/internal/observability"
	obslogger "github.com/fleetmetrics/printledger/internal/observability/logger"
	obstracing "github.com/fleetmetrics/printledger/internal/observability/tracing"
	"github.com/fleetmetrics/printledger/internal/providers/pdf"
	referencedomain "github.com/fleetmetrics/printledger/internal/reference/domain"
	usagedomain "github.com/fleetmetrics/printledger/internal/usage/domain"
	workcenterdomain "github.com/fleetmetrics/printledger/internal/workcenter/domain"
	"github.com/fleetmetrics/printledger/pkg/repository"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Config      config.Config
	ObsConfig   observability.Config
	Devices     devicedomain.Service
	Ledger      ledgerdomain.Service
	LedgerStore repository.Repository[ledgerdomain.Entry]
	Usage       usagedomain.Service
	WorkCenters workcenterdomain.Service
	Reference   referencedomain.Service
	PDF         pdf.Provider
	Collector   *collector.Collector
}

type Server struct {
	log         *zap.Logger
	engine      *gin.Engine
	addr        string
	devices     devicedomain.Service
	ledger      ledgerdomain.Service
	ledgerStore repository.Repository[ledgerdomain.Entry]
	usage       usagedomain.Service
	workCenters workcenterdomain.Service
	reference   referencedomain.Service
	pdf         pdf.Provider
	collector   *collector.Collector
}

func New(p Params) *Server {
	if !p.ObsConfig.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		obslogger.GinMiddleware(obslogger.MiddlewareConfig{
			Debug:           p.ObsConfig.Debug(),
			ErrorClassifier: ClassifyError,
		}),
		obstracing.GinMiddleware(),
	)

	s := &Server{
		log:         p.Log.Named("server"),
		engine:      engine,
		addr:        p.Config.HTTPAddr,
		devices:     p.Devices,
		ledger:      p.Ledger,
		ledgerStore: p.LedgerStore,
		usage:       p.Usage,
		workCenters: p.WorkCenters,
		reference:   p.Reference,
		pdf:         p.PDF,
		collector:   p.Collector,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	{
		v1.GET("/devices", s.listDevices)
		v1.POST("/devices/merge", s.mergeDevices)
		v1.GET("/devices/:id/ledger", s.deviceLedger)
		v1.GET("/ledger", s.listLedger)
		v1.GET("/usage", s.listUsage)
		v1.GET("/report", s.report)
		v1.GET("/report/pdf", s.reportPDF)
		v1.GET("/page-costs", s.pageCosts)
		v1.POST("/collector/run", s.triggerRun)
	}
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func registerHooks(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.log.Info("http server listening", zap.String("addr", s.addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(
		New,
		repository.ProvideStore[ledgerdomain.Entry],
	),
	fx.Invoke(registerHooks),
)
