package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "lintang/greenwave/docs"
	"lintang/greenwave/pkg/config"
	"lintang/greenwave/pkg/engine/phase"
	"lintang/greenwave/pkg/engine/proximity"
	"lintang/greenwave/pkg/geodata"
	"lintang/greenwave/pkg/kv"
	"lintang/greenwave/pkg/notify"
	"lintang/greenwave/pkg/server/rest"
	"lintang/greenwave/pkg/server/rest/service"
	"lintang/greenwave/pkg/simulation"
	"lintang/greenwave/pkg/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

var (
	configPath = flag.String("config", "", "config file path (yaml). kosong = default")
	listenAddr = flag.String("listenaddr", "", "server listen address, override server.listen_addr")
	logLevel   = flag.String("log.level", "", "log level (trace debug info warn error critical off), override log.level")
)

//	@title			greenwave API
//	@version		1.0
//	@description	adaptive traffic signal controller: junction clustering, route matching, proximity priority and adaptive phase timing

//	@contact.name	lintang birda saputra

//	@license.name	GNU Affero General Public License v3.0
//	@license.url	https://www.gnu.org/licenses/gpl-3.0.en.html

// @host		localhost:5000
// @BasePath	/
// @schemes	http
func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatal(err)
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
		if err := cfg.Validate(); err != nil {
			logrus.Fatal(err)
		}
	}

	logger := config.NewLogger(cfg.Log, os.Stdout)
	log := logger.WithField("module", "greenwave")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)

	var cache *kv.SignalCache
	if cfg.Geodata.CacheEnabled {
		cache, err = kv.OpenSignalCache(cfg.Geodata.CacheDir, cfg.Geodata.CacheResolution, logger.WithField("module", "kv"))
		if err != nil {
			log.Fatal(err)
		}
		defer cache.Close()
	}
	signals := buildSignalSource(cfg.Geodata, cache, m, logger)

	notifier, closeSinks, err := buildNotifier(cfg.Notify, m, logger)
	if err != nil {
		log.Fatal(err)
	}
	dispatcher := notify.NewDispatcher(cfg.Notify.Dispatcher, notifier, logger.WithField("module", "notify"))
	dispatcher.OnDropped(m.NotificationDropped)

	scheduler, err := phase.NewScheduler(cfg.Phase.Phases, cfg.Phase.Timing, logger.WithField("module", "phase"))
	if err != nil {
		log.Fatal(err)
	}
	tracker := proximity.NewTracker(cfg.Proximity.Config, dispatcher, logger.WithField("module", "proximity"))
	ctrl := simulation.NewController(scheduler, tracker, simulation.Options{
		PhaseInterval:     cfg.Phase.TickInterval,
		ProximityInterval: cfg.Proximity.TickInterval,
		SpeedMps:          cfg.Playback.SpeedMps,
		OnTransitions:     m.ObservePhaseTransitions,
		OnProximity: func(res proximity.TickResult) {
			if res.Emitted != nil {
				m.ProximityEvent()
			}
		},
	}, logger.WithField("module", "simulation"))

	svc := service.NewGreenWaveService(ctx, service.Config{
		ClusterThresholdMeters: cfg.Clustering.ThresholdMeters,
		MatchThresholdMeters:   cfg.Matching.ThresholdMeters,
	}, signals, ctrl, logger.WithField("module", "greenwave"))
	svc.OnRoute = func(rc service.RouteContext) {
		m.SetRoute(len(rc.Clusters), len(rc.Matched))
	}

	r := chi.NewRouter()

	r.Use(middleware.Logger)

	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.Server.Profiler {
		r.Mount("/debug", middleware.Profiler())
	}

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), //The url pointing to API definition
	))

	rest.GreenWaveRouter(r, svc, logger.WithField("module", "rest"))
	rest.IoTRouter(r, logger.WithField("module", "iot"))

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("server started at %s", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	ctrl.Stop()
	dispatcher.Close()
	closeSinks()
}

// buildSignalSource: overpass -> pbf -> cache, lalu static list kalau semuanya gagal.
func buildSignalSource(cfg config.Geodata, cache *kv.SignalCache, m *telemetry.Metrics, logger *logrus.Logger) *geodata.Fallback {
	log := logger.WithField("module", "geodata")
	withCache := func(src geodata.Source) geodata.Source {
		if cache == nil {
			return src
		}
		return geodata.NewCachedSource(src, cache, log)
	}

	sources := []geodata.Source{}
	if cfg.OverpassEnabled {
		sources = append(sources, withCache(geodata.NewOverpassSource(cfg.Overpass, log)))
	}
	if cfg.PBFPath != "" {
		sources = append(sources, withCache(geodata.NewPBFSource(cfg.PBFPath, cfg.PBFProcs)))
	}
	if cache != nil {
		sources = append(sources, geodata.NewCacheSource(cache))
	}
	return geodata.NewFallback(sources, geodata.NewStaticSource(cfg.StaticNodes()), m.ObserveGeodata, log)
}

func buildNotifier(cfg config.Notify, m *telemetry.Metrics, logger *logrus.Logger) (notify.Notifier, func(), error) {
	log := logger.WithField("module", "notify")
	sinks := []notify.Notifier{}
	closers := []func(){}

	if cfg.Log {
		sinks = append(sinks, notify.NewLogNotifier(log))
	}
	if cfg.HTTP.Enabled {
		sinks = append(sinks, notify.NewHTTPNotifier(cfg.HTTP.HTTPConfig, log))
	}
	if cfg.MQTT.Enabled {
		client, err := notify.ConnectMQTT(cfg.MQTT.MQTTConfig)
		if err != nil {
			return nil, nil, err
		}
		mq := notify.NewMQTTNotifier(client, cfg.MQTT.MQTTConfig)
		sinks = append(sinks, mq)
		closers = append(closers, mq.Close)
	}
	if cfg.Kafka.Enabled {
		kn, err := notify.NewKafkaNotifier(cfg.Kafka.KafkaConfig, log)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka notifier: %w", err)
		}
		sinks = append(sinks, kn)
		closers = append(closers, kn.Close)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return notify.NewFanout(m.ObserveNotification, sinks...), closeAll, nil
}
