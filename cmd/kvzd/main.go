// kvzd runs the kvz key/value server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/kvz-io/kvz/internal/config"
	"github.com/kvz-io/kvz/internal/observability"
	"github.com/kvz-io/kvz/internal/server"
)

func main() {
	logger := observability.InitLogger("kvzd")

	var (
		configPath  = flag.String("config", "", "path to TOML config (optional)")
		bind        = flag.String("bind", "", "listen endpoint, e.g. tcp://0.0.0.0:5555")
		workers     = flag.Int("workers", 0, "request workers (1 = plain REP loop)")
		shards      = flag.Int("shards", 0, "store shard count")
		metricsAddr = flag.String("metrics-addr", "", "HTTP listen address for /metrics")
	)
	flag.Parse()

	cfg := config.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := config.LoadServerConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
		cfg = loaded
		logger.Info().Str("path", *configPath).Msg("loaded config")
	}

	// Flags set on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bind":
			cfg.Bind = *bind
		case "workers":
			cfg.Workers = *workers
		case "shards":
			cfg.Shards = *shards
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})
	if err := config.ValidateServerConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	observability.RegisterMetrics()
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		ms := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
			if err := ms.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Bind:    cfg.Bind,
		Workers: cfg.Workers,
		Shards:  cfg.Shards,
	}, logger)

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("server shut down")
}
