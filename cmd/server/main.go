package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AstroMindinfotech/VFDS/internal/analysis"
	"github.com/AstroMindinfotech/VFDS/internal/config"
	"github.com/AstroMindinfotech/VFDS/internal/metrics"
	"github.com/AstroMindinfotech/VFDS/internal/server"
	"github.com/AstroMindinfotech/VFDS/internal/session"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "voice-fraud-detection-service"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary
	logger.Info("Configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("bind_address", cfg.Server.BindAddress),
		slog.Int("max_concurrent_connections", cfg.Server.MaxConcurrentConnections),
		slog.Int("session_timeout", cfg.Server.SessionTimeout),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("min_samples", cfg.Audio.MinSamples),
		slog.Float64("default_sensitivity", cfg.Analysis.DefaultSensitivity),
		slog.String("default_model", cfg.Analysis.DefaultModel),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize the fraud analyzer
	analyzer := analysis.NewAnalyzer(analysis.Config{
		SampleRate:       cfg.Audio.SampleRate,
		MinSamples:       cfg.Audio.MinSamples,
		ReplayRiskFactor: cfg.Analysis.ReplayRiskFactor,
		RMSWeight:        cfg.Analysis.RMSWeight,
		ZCRWeight:        cfg.Analysis.ZCRWeight,
		JitterSpan:       cfg.Analysis.JitterSpan,
		SuspiciousLevel:  cfg.Analysis.SuspiciousLevel,
		AnomalousLevel:   cfg.Analysis.AnomalousLevel,
		NoiseRMSLevel:    cfg.Analysis.NoiseRMSLevel,
		ProsodyLevel:     cfg.Analysis.ProsodyLevel,
		SilenceRMSLevel:  cfg.Analysis.SilenceRMSLevel,
	})
	logger.Info("Fraud analyzer initialized",
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Float64("replay_risk_factor", cfg.Analysis.ReplayRiskFactor),
	)

	// Initialize session manager
	sessionMgr := session.NewManager(logger, cfg.Server.GetSessionTimeoutDuration(),
		cfg.Server.MaxConcurrentConnections)
	logger.Info("Session manager initialized",
		slog.Duration("session_timeout", cfg.Server.GetSessionTimeoutDuration()),
		slog.Int("max_concurrent_connections", cfg.Server.MaxConcurrentConnections),
	)

	// Initialize WebSocket handler and HTTP server
	wsHandler := server.NewWSHandler(cfg, logger, sessionMgr, analyzer, appMetrics)
	httpServer := server.NewHTTPServer(cfg, logger, sessionMgr, analyzer, wsHandler, appMetrics)
	logger.Info("HTTP server initialized",
		slog.String("address", fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port)),
	)

	// Start HTTP server (serves both the WebSocket endpoint and the API)
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("websocket_url", fmt.Sprintf("ws://%s:%d/ws", cfg.Server.BindAddress, cfg.Server.Port)),
	)

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		cfg.Server.GetShutdownTimeoutDuration())
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	// Stop session manager (cancels remaining connections)
	sessionMgr.Stop()

	// Log final statistics
	stats := wsHandler.GetStatistics()
	analyzerStats := analyzer.GetStats()
	logger.Info("Final server statistics",
		slog.Uint64("messages_received", stats.MessagesReceived),
		slog.Uint64("messages_processed", stats.MessagesProcessed),
		slog.Uint64("parse_errors", stats.ParseErrors),
		slog.Uint64("analyses_performed", analyzerStats.TotalAnalyses),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
