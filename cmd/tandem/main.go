// Tandem is a language-learning conversation backend: each recorded
// utterance gets a partner reply, tutor feedback and synthesized audio.
//
// Usage:
//
//	tandem [flags]
//	tandem --config /path/to/tandem.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nadzzz/tandem/internal/config"
	"github.com/nadzzz/tandem/internal/health"
	"github.com/nadzzz/tandem/internal/httpclient"
	"github.com/nadzzz/tandem/internal/keys"
	llmbackends "github.com/nadzzz/tandem/internal/llm/backends"
	"github.com/nadzzz/tandem/internal/metrics"
	"github.com/nadzzz/tandem/internal/service"
	speechbackends "github.com/nadzzz/tandem/internal/speech/backends"
	"github.com/nadzzz/tandem/internal/telemetry"
	"github.com/nadzzz/tandem/internal/transport"
	grpctransport "github.com/nadzzz/tandem/internal/transport/grpc"
	httptransport "github.com/nadzzz/tandem/internal/transport/http"
	"github.com/nadzzz/tandem/internal/turn"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/tandem.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tandem %s\n", version)
		os.Exit(0)
	}

	if err := run(*configFile); err != nil {
		slog.Error("tandem failed", "error", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	config.SetupLogging(cfg.Logging)
	slog.Info("tandem starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tp, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	m := metrics.NewCollector("tandem")
	hc := httpclient.New(cfg.HTTPClient)

	gateway, err := llmbackends.NewGateway(cfg.Models, hc, m)
	if err != nil {
		return fmt.Errorf("model gateway: %w", err)
	}
	slog.Info("model gateway ready", "providers", gateway.Providers(), "default", gateway.DefaultProvider())

	strategy, err := keys.Named(cfg.Models.KeyStrategy)
	if err != nil {
		return err
	}
	transcriber, err := speechbackends.NewTranscriber(cfg.Speech.Transcription, strategy, hc)
	if err != nil {
		return fmt.Errorf("transcription backend: %w", err)
	}
	synthesizer, err := speechbackends.NewSynthesizer(cfg.Speech.Synthesis, strategy, hc)
	if err != nil {
		return fmt.Errorf("synthesis backend: %w", err)
	}
	slog.Info("speech backends ready",
		"transcription", transcriber.Name(),
		"synthesis", synthesizer.Name(),
		"format", synthesizer.Format().Codec)

	orchestrator := turn.New(transcriber, synthesizer, gateway,
		turn.WithMetrics(m),
		turn.WithLanguageHint(cfg.Speech.Transcription.LanguageHint))
	svc := service.New(orchestrator, gateway)

	// Initialize enabled transports.
	var transports []transport.Transport
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port, cfg.Transports.HTTP.MaxUploadBytes))
	}
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP))
	}
	if len(transports) == 0 {
		return fmt.Errorf("no transports enabled; enable at least one in config")
	}

	// Start health check server.
	healthServer := health.New(cfg.Server.HealthPort, m.Handler())
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start all transports.
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, svc); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
				cancel()
			}
		}(t)
	}

	// Mark as ready once all transports are started.
	healthServer.SetReady(true)
	slog.Info("tandem ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort)

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")
	healthServer.SetReady(false)

	wg.Wait()
	slog.Info("tandem stopped")
	return nil
}
