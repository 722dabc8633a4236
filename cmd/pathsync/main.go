package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "pathsync/docs"
	"pathsync/pkg/config"
	"pathsync/pkg/engine/incident"
	"pathsync/pkg/engine/routingalgorithm"
	"pathsync/pkg/engine/updater"
	"pathsync/pkg/geocoder"
	"pathsync/pkg/history"
	"pathsync/pkg/kv"
	"pathsync/pkg/logger"
	"pathsync/pkg/roadgraph"
	"pathsync/pkg/server/rest"
	"pathsync/pkg/server/rest/service"
	"pathsync/pkg/simulation"
	"pathsync/pkg/sumonet"

	"github.com/cockroachdb/pebble"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "path to the yaml config file")
	listenAddr = flag.String("listenaddr", "", "server listen address (overrides the config)")
	netFile    = flag.String("f", "", "SUMO .net.xml road network (overrides the config)")
)

//	@title			pathsync API
//	@version		1.0
//	@description	live traffic-aware routing over a SUMO road network with incident detection

// @host		localhost:5000
// @BasePath	/
// @schemes	http
func main() {
	flag.Parse()
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if *listenAddr != "" {
		cfg.Server.Addr = *listenAddr
	}
	if *netFile != "" {
		cfg.Network.File = *netFile
	}

	lg, tail, err := logger.New(cfg.Log.Level, cfg.Log.Development, cfg.Log.TailSize)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	network, err := sumonet.LoadNetwork(cfg.Network.File, sumonet.Options{ShowProgress: cfg.Network.ShowProgress})
	if err != nil {
		lg.Fatal("load road network", zap.String("file", cfg.Network.File), zap.Error(err))
	}
	graph := roadgraph.NewRoadGraph()
	if err := graph.Build(network.Nodes, network.Edges); err != nil {
		lg.Fatal("build road graph", zap.Error(err))
	}
	lg.Info("road network loaded",
		zap.Int("nodes", graph.NumNodes()),
		zap.Int("edges", graph.NumEdges()),
		zap.Int("internal_edges", network.InternalEdgeCount))

	kvDB, err := kv.Open(cfg.Geocoder.CacheDir, &pebble.Options{})
	if err != nil {
		lg.Fatal("open geocode cache", zap.String("dir", cfg.Geocoder.CacheDir), zap.Error(err))
	}
	defer kvDB.Close()

	geo, err := geocoder.New(geocoder.Config{
		BaseURL:   cfg.Geocoder.BaseURL,
		Region:    cfg.Geocoder.Region,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   cfg.Geocoder.Timeout,
		Retries:   cfg.Geocoder.Retries,
		CacheSize: cfg.Geocoder.CacheSize,
	}, kvDB, lg.Named("geocoder"))
	if err != nil {
		lg.Fatal("create geocoder", zap.Error(err))
	}
	go func() {
		n := geo.Warm(ctx, cfg.Geocoder.Warm, 2)
		if len(cfg.Geocoder.Warm) > 0 {
			lg.Info("geocode cache warmed", zap.Int("resolved", n), zap.Int("queries", len(cfg.Geocoder.Warm)))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := rest.NewMetrics(reg)

	ledger := history.NewLedger()
	simCfg := simulation.Config{
		Binary:     cfg.Simulation.Binary,
		ConfigFile: cfg.Simulation.ConfigFile,
		Port:       cfg.Simulation.Port,
		Addr:       cfg.Simulation.Addr,
		End:        cfg.Simulation.End,
		Retries:    cfg.Simulation.Retries,
		RetryDelay: cfg.Simulation.RetryDelay,
	}
	open := func(ctx context.Context) (updater.Bridge, error) {
		b, err := simulation.Open(ctx, simCfg, lg.Named("simulation"))
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	upd := updater.New(updater.Config{
		Horizon:           cfg.Simulation.End,
		ReconcileInterval: cfg.Engine.ReconcileInterval,
		ClampSpeed:        cfg.Engine.ClampSpeed,
		Warmup:            cfg.Server.StartupDelay,
		Detector: incident.Config{
			HaltingThreshold:  cfg.Engine.HaltingThreshold,
			DurationThreshold: cfg.Engine.DurationThreshold,
			Interval:          cfg.Engine.ReconcileInterval,
		},
	}, graph, open, ledger, updater.NewMetrics(reg), lg.Named("updater"))

	updaterDone := make(chan struct{})
	go func() {
		defer close(updaterDone)
		if err := upd.Run(ctx); err != nil {
			lg.Error("live updates stopped, routing continues on the last known weights", zap.Error(err))
		}
	}()

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), //The url pointing to API definition
	))

	routingAlgorithm := routingalgorithm.NewRouteAlgorithm()
	navigatorSvc := service.NewNavigationService(graph, network, geo, routingAlgorithm, lg.Named("routing"))
	incidentSvc := service.NewIncidentService(graph, network, geo, ledger, cfg.Engine.SearchRadius, lg.Named("incident"))
	telemetrySvc := service.NewTelemetryService(graph, upd, ledger, tail)
	rest.NavigatorRouter(r, navigatorSvc, incidentSvc, m)
	rest.TelemetryRouter(r, telemetrySvc)

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	lg.Info("server started", zap.String("addr", cfg.Server.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Error("http server", zap.Error(err))
		stop()
	}
	if !awaitDone(updaterDone, cfg.Server.ShutdownTimeout) {
		lg.Warn("live weight updater did not stop in time, abandoning the simulator session",
			zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	}
}

// awaitDone waits for done to close, giving up after timeout.
func awaitDone(done <-chan struct{}, timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}
