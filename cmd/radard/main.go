// Command radard serves radar performance evaluations over HTTP/JSON.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/wiless/radarperf"
	"github.com/wiless/radarperf/antenna"
	"github.com/wiless/radarperf/cache"
	"github.com/wiless/radarperf/config"
	"github.com/wiless/radarperf/sweep"
	"github.com/wiless/radarperf/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using process environment")
	}
	configPath := flag.String("config", "", "service config file (default: search radarperf.yaml)")
	addr := flag.String("addr", "", "listen address, overrides server.addr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("loading config")
	}
	if err := cfg.Log.Apply(); err != nil {
		log.WithError(err).Fatal("log config")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if cfg.Tracing.ServiceName == "radarperf" {
		cfg.Tracing.ServiceName = "radard"
	}
	shutdownTracing, err := telemetry.InitTracing(context.Background(), cfg.Tracing)
	if err != nil {
		log.WithError(err).Fatal("tracing")
	}
	defer telemetry.Shutdown(shutdownTracing, 5*time.Second)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := sweep.NewMetrics(reg)
	if err != nil {
		log.WithError(err).Fatal("registering metrics")
	}
	analyzer := radarperf.NewAnalyzer(
		radarperf.WithRunner(cfg.Sweep.Runner(metrics)),
		radarperf.WithPatternCache(cache.NewSized[*antenna.RadiationPattern]("patterns", cfg.Server.PatternCacheSize)),
	)

	app := fiber.New(fiber.Config{
		AppName:      "radard",
		BodyLimit:    maxBodyBytes,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	setupRoutes(app, newHandler(analyzer), reg)

	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("radard listening")
		if err := app.Listen(cfg.Server.Addr); err != nil {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.WithError(err).Warn("forced shutdown")
	}
}
