package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/video-system/go-capture-negotiation/internal/config"
	"github.com/video-system/go-capture-negotiation/internal/logging"
	"github.com/video-system/go-capture-negotiation/internal/profile"
	"github.com/video-system/go-capture-negotiation/pkg/api"
	"github.com/video-system/go-capture-negotiation/pkg/engine"
	"github.com/video-system/go-capture-negotiation/pkg/session"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("negotiator failed", zap.Error(err))
	}
	logger.Info("Negotiator stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Negotiator starting", zap.String("version", version))

	// Capture session hand-off
	var submitter session.Submitter = session.Discard
	switch {
	case cfg.Session.URL != "":
		submitter = session.NewHTTPSubmitter(session.HTTPConfig{
			URL:     cfg.Session.URL,
			APIKey:  cfg.Session.APIKey,
			Timeout: cfg.Session.Timeout,
		})
		logger.Info("Remote session enabled", zap.String("url", cfg.Session.URL))
	case cfg.Session.Output != "":
		stream, err := session.OpenFile(cfg.Session.Output)
		if err != nil {
			return err
		}
		defer stream.Close()
		submitter = stream
		logger.Info("Session output enabled", zap.String("path", cfg.Session.Output))
	}

	negotiator, err := engine.New(engine.Options{
		Logger:     logger,
		Submitter:  submitter,
		CacheSize:  cfg.Catalog.CacheSize,
		History:    cfg.Session.History,
		HistoryAge: cfg.Session.HistoryAge,
	})
	if err != nil {
		return fmt.Errorf("create negotiator: %w", err)
	}

	devices, err := profile.LoadAll(cfg.Devices.ProfilePaths())
	if err != nil {
		return err
	}
	for _, raw := range devices {
		if _, err := negotiator.Open(raw); err != nil {
			// Continue with other devices
			logger.Warn("Failed to open device", zap.String("device_id", raw.ID), zap.Error(err))
			continue
		}
		negotiateDefault(negotiator, cfg, raw.ID, logger)
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiServer := api.NewServer(api.ServerConfig{
		Host:       cfg.API.Host,
		Port:       cfg.API.Port,
		Negotiator: negotiator,
		Logger:     logger,
	})

	errc := make(chan error, 1)
	go func() {
		errc <- apiServer.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
	}
	apiServer.Stop()
	return nil
}

// negotiateDefault selects the configured format for a device and resolves
// the default repeating intent against it.
func negotiateDefault(n *engine.Negotiator, cfg *config.Config, deviceID string, logger *zap.Logger) {
	log := logger.With(zap.String("device_id", deviceID))

	active, err := n.SelectFormat(deviceID, cfg.FormatFilter)
	if err != nil {
		log.Warn("No format selected", zap.Error(err))
		return
	}

	params, err := n.BuildRepeating(deviceID, &active, cfg.Intent)
	if err != nil {
		log.Warn("Default intent rejected", zap.Error(err))
		return
	}
	log.Info("Default repeating request resolved",
		zap.String("template", string(params.Template)),
		zap.String("af_mode", string(params.AFMode)),
		zap.String("ae_mode", string(params.AEMode)),
		zap.Any("fps_range", params.FpsRange),
		zap.Int("decisions", len(params.Decisions)))
}
