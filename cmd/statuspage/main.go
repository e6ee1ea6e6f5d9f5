package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/capstone-so2/statuspage/internal/config"
	"github.com/capstone-so2/statuspage/internal/logx"
	"github.com/capstone-so2/statuspage/internal/server"
	"github.com/capstone-so2/statuspage/internal/serverstate"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// restore default handling so a second signal terminates immediately
		<-ctx.Done()
		stop()
	}()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		var bindErr *server.BindError
		if errors.As(err, &bindErr) {
			logx.Log.Fatal().Err(bindErr.Err).Str("addr", bindErr.Addr).Msg("bind failed")
		}
		logx.Log.Fatal().Err(err).Msg("server error")
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("statuspage", flag.ContinueOnError)
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "statuspage version=%s sha=%s date=%s\n\n", version, buildSHA, buildDate)
		fs.PrintDefaults()
	}
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}
	if *showVersion {
		_, _ = fmt.Fprintf(stdout, "statuspage version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return nil
	}
	logx.Configure(cfg.LogLevel)

	instanceID := uuid.NewString()
	var store serverstate.Store
	if cfg.RedisAddr != "" {
		rs, err := serverstate.NewRedisStore(cfg.RedisAddr, instanceID)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = rs.Close() }()
		store = rs
		logx.Log.Info().Str("key", serverstate.RedisKey(instanceID)).Msg("publishing server state to redis")
	}
	tracker := serverstate.NewTracker(store, instanceID)

	preg := prometheus.NewRegistry()
	handler := server.New(server.Options{
		Config:   cfg,
		Tracker:  tracker,
		Build:    server.BuildInfo{Version: version, SHA: buildSHA, Date: buildDate},
		Registry: preg,
	})
	h := server.NewHandle(cfg.ListenAddr(), handler, tracker)
	if err := h.Start(); err != nil {
		return err
	}

	var metricsSrv *http.Server
	if !cfg.MetricsOnMainPort() {
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           server.MetricsHandler(preg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logx.Log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server starting")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logx.Log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	served := make(chan error, 1)
	go func() { served <- h.Wait() }()

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
		logx.Log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logx.Log.Error().Err(err).Msg("metrics server shutdown")
		}
	}
	if err := h.Stop(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logx.Log.Warn().Msg("shutdown timeout exceeded; closed remaining connections")
			return nil
		}
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
