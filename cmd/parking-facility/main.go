package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parking-facility/internal/config"
	"parking-facility/internal/logging"
	"parking-facility/internal/parking"
	"parking-facility/internal/server"
)

var (
	mode = flag.String("mode", "", "Mode to run: cli, server, or both (overrides APP_MODE)")
	port = flag.String("port", "", "Port for HTTP server (overrides APP_PORT)")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *port != "" {
		cfg.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry, err := parking.NewTelemetryProvider(ctx, cfg.Telemetry())
	if err != nil {
		logging.Error(ctx, "failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer shutdownTelemetry(telemetry)

	logging.Init(cfg.OTelServiceName, cfg.Environment)

	facility, err := parking.NewFacility(cfg.Facility())
	if err != nil {
		logging.Error(ctx, "invalid facility configuration", "error", err)
		return
	}

	instrumented, err := parking.NewInstrumentedFacility(facility, telemetry)
	if err != nil {
		logging.Error(ctx, "failed to instrument facility", "error", err)
		return
	}

	logging.Info(ctx, "facility ready",
		"mode", cfg.Mode,
		"floors", cfg.Floors,
		"capacity", facility.Capacity(),
		"fine_scheme", facility.FineScheme().String(),
	)

	switch cfg.Mode {
	case "cli":
		runCLI(ctx, instrumented, telemetry)
	case "server":
		runServer(ctx, cfg, instrumented)
	case "both":
		runBoth(ctx, cfg, instrumented, telemetry)
	default:
		logging.Error(ctx, "invalid mode, must be cli, server, or both", "mode", cfg.Mode)
	}
}

func newServer(cfg *config.Config, facility *parking.InstrumentedFacility) *server.Server {
	return server.NewServer(cfg.Port, facility, cfg.OTelServiceName, parking.NewCollector(facility.Facility))
}

func runCLI(ctx context.Context, facility *parking.InstrumentedFacility, telemetry *parking.TelemetryProvider) {
	done := startShell(ctx, facility, telemetry)

	select {
	case <-done:
	case <-ctx.Done():
		logging.Info(context.Background(), "received shutdown signal")
	}
}

func runServer(ctx context.Context, cfg *config.Config, facility *parking.InstrumentedFacility) {
	srv := newServer(cfg, facility)
	serverDone := startServer(srv)

	select {
	case err := <-serverDone:
		logServerExit(err)
	case <-ctx.Done():
		logging.Info(context.Background(), "received shutdown signal")
		shutdownServer(srv)
	}
}

func runBoth(ctx context.Context, cfg *config.Config, facility *parking.InstrumentedFacility, telemetry *parking.TelemetryProvider) {
	srv := newServer(cfg, facility)
	serverDone := startServer(srv)
	cliDone := startShell(ctx, facility, telemetry)

	select {
	case err := <-serverDone:
		logServerExit(err)
		return
	case <-cliDone:
		logging.Info(context.Background(), "CLI exited")
	case <-ctx.Done():
		logging.Info(context.Background(), "received shutdown signal")
	}

	shutdownServer(srv)
}

func startShell(ctx context.Context, facility *parking.InstrumentedFacility, telemetry *parking.TelemetryProvider) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		parking.NewShell(facility, telemetry, os.Stdin, os.Stdout).Run(ctx)
	}()
	return done
}

func startServer(srv *server.Server) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- srv.Start()
	}()
	return done
}

func logServerExit(err error) {
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error(context.Background(), "server error", "error", err)
	}
}

func shutdownServer(srv *server.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx, "server shutdown error", "error", err)
	}
}

func shutdownTelemetry(telemetry *parking.TelemetryProvider) {
	logging.Info(context.Background(), "shutting down telemetry")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx, "error shutting down telemetry", "error", err)
	}
}
