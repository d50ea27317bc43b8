package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracewire-systems/wsrecorder/internal/config"
	"github.com/tracewire-systems/wsrecorder/internal/diag"
	"github.com/tracewire-systems/wsrecorder/internal/handlers"
	"github.com/tracewire-systems/wsrecorder/internal/logging"
	"github.com/tracewire-systems/wsrecorder/internal/recorder"
	"github.com/tracewire-systems/wsrecorder/internal/server"
	"github.com/tracewire-systems/wsrecorder/internal/sink"
	natssource "github.com/tracewire-systems/wsrecorder/internal/source/nats"
	"github.com/tracewire-systems/wsrecorder/internal/source/wsproxy"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "wsrecorder",
	Short: "Always-on websocket traffic recorder",
	Long: `wsrecorder intercepts websocket messages flowing over many
concurrent connections and appends them durably to a single output file
in XML, CSV or JSON, with runtime hot-swap of the destination.`,
	Version: "0.1.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("wsrecorder"))
	logging.SetDefault(logger)

	outputPath := cfg.Output.Path
	if outputPath == "" {
		outputPath = fmt.Sprintf("websocket-messages-%s.dat",
			time.Now().Format("2006-01-02_15-04-05.000"))
	}

	opts := cfg.RecordingOptions()

	slog.Info("Starting wsrecorder",
		slog.Int("port", cfg.Server.Port),
		slog.String("output", outputPath),
		slog.String("format", opts.Format.String()),
		slog.String("log_level", cfg.Logging.Level),
	)
	if cfgFile != "" {
		slog.Info("Loaded configuration", slog.String("config_path", cfgFile))
	}

	reporter := diag.NewReporter(logger.Logger, 200)

	// Open the initial sink before accepting any traffic; a recorder
	// without a destination is not ready.
	sinkManager := sink.NewManager()
	if err := sinkManager.Open(outputPath, opts.Format); err != nil {
		return fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}

	rec := recorder.New(logger, reporter, sinkManager, opts)
	rec.SetRecording(cfg.Recording.Enabled)

	// Optional NATS capture source
	var capture *natssource.Source
	if cfg.NATS.Enabled {
		capture, err = natssource.New(cfg.NATS.URL, cfg.NATS.Subject, rec, reporter, logger)
		if err != nil {
			return fmt.Errorf("failed to start NATS source: %w", err)
		}
		if err := capture.Start(); err != nil {
			capture.Close()
			return fmt.Errorf("failed to subscribe NATS source: %w", err)
		}
	} else {
		slog.Info("NATS capture source disabled")
	}

	// Websocket relay source
	var relay http.Handler
	if cfg.Proxy.Enabled {
		relay = wsproxy.New(rec, reporter, logger, cfg.Proxy.Target, cfg.Proxy.AllowedOverride)
		slog.Info("websocket relay enabled", slog.String("target", cfg.Proxy.Target))
	} else {
		slog.Info("websocket relay disabled")
	}

	handler := handlers.NewControlHandler(rec, reporter)
	router := server.NewRouter(handler, relay)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("control API listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown: stop intake, drain the queue, close the envelope.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	if capture != nil {
		capture.Close()
	}

	if err := rec.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	slog.Info("recorder stopped")
	return nil
}
