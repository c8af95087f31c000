// SPDX-License-Identifier: MIT

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

	"golang.org/x/sync/errgroup"

	"github.com/soleks/botvar/internal/api"
	"github.com/soleks/botvar/internal/config"
	"github.com/soleks/botvar/internal/heroku"
	bvlog "github.com/soleks/botvar/internal/log"
	"github.com/soleks/botvar/internal/restart"
	"github.com/soleks/botvar/internal/store"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	bvlog.Configure(bvlog.Config{
		Level:   config.ParseString("BOTVAR_LOG_LEVEL", "info"),
		Service: config.ParseString("LOG_SERVICE", "botvar"),
		Version: version,
	})
	logger := bvlog.WithComponent("daemon")

	loader := config.NewLoader(*configPath, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().Err(err).
			Str(bvlog.FieldEvent, "config.load_failed").
			Str(bvlog.FieldPath, *configPath).
			Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.New(cfg.DataDir, config.DefaultSettings())
	st.Init()
	logger.Info().
		Str(bvlog.FieldEvent, "daemon.store_ready").
		Str(bvlog.FieldSessionID, st.SessionID()).
		Str(bvlog.FieldPath, st.Path()).
		Msg("settings store initialized")

	// Remote availability check: both credentials present and the
	// probe succeeding enable mirror mode; anything else stays
	// local-only and is not fatal.
	var dynos restart.DynoRestarter
	if cfg.RemoteConfigured() {
		client := heroku.New(cfg.HerokuAppName, cfg.HerokuAPIKey, heroku.WithTimeout(cfg.RemoteTimeout))
		probeCtx, cancel := context.WithTimeout(ctx, cfg.RemoteTimeout)
		err := client.Probe(probeCtx)
		cancel()
		if err != nil {
			logger.Warn().Err(err).
				Str(bvlog.FieldEvent, "daemon.remote_unavailable").
				Str(bvlog.FieldApp, cfg.HerokuAppName).
				Msg("remote config store unreachable, continuing local-only")
		} else {
			st.AttachRemote(client)
			dynos = client
			syncCtx, cancel := context.WithTimeout(ctx, cfg.RemoteTimeout)
			if err := st.SyncFromRemote(syncCtx); err != nil {
				logger.Warn().Err(err).
					Str(bvlog.FieldEvent, "daemon.initial_sync_failed").
					Msg("initial remote sync failed")
			}
			cancel()
		}
	} else {
		logger.Info().
			Str(bvlog.FieldEvent, "daemon.remote_disabled").
			Msg("no remote credentials, running local-only")
	}

	if cfg.WatchDocument {
		if err := st.StartWatcher(ctx); err != nil {
			logger.Warn().Err(err).
				Str(bvlog.FieldEvent, "daemon.watcher_failed").
				Msg("settings document watcher not started")
		}
	}

	// Startup summary through the typed accessor surface the bot's
	// message handlers consume.
	settings := config.NewSettings(st)
	logger.Info().
		Str(bvlog.FieldEvent, "daemon.settings_summary").
		Bool("auto_read", settings.AutoRead()).
		Bool("public_mode", settings.PublicMode()).
		Bool("anti_link", settings.AntiLink()).
		Str("prefix", settings.Prefix()).
		Msg("effective bot settings")

	restartOpts := []restart.Option{}
	if dynos != nil {
		restartOpts = append(restartOpts, restart.WithRemote(dynos))
	}
	restarter := restart.New(cfg.RestartPort, restart.Delays{
		Primary:   cfg.RestartPrimaryDelay,
		Fallback:  cfg.RestartFallbackDelay,
		Emergency: cfg.RestartEmergencyDelay,
	}, restartOpts...)

	srv := api.New(st, stop,
		api.WithRateLimit(cfg.RateLimitPerMinute),
		api.WithRestarter(restarter),
	)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str(bvlog.FieldEvent, "daemon.listening").
			Str("addr", cfg.ListenAddr).
			Msg("control server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Str(bvlog.FieldEvent, "daemon.stopped").Msg("daemon exited with error")
		os.Exit(1)
	}
	logger.Info().Str(bvlog.FieldEvent, "daemon.stopped").Msg("daemon exited cleanly")
}
