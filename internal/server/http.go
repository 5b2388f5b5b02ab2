package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AstroMindinfotech/VFDS/internal/analysis"
	"github.com/AstroMindinfotech/VFDS/internal/config"
	"github.com/AstroMindinfotech/VFDS/internal/metrics"
	"github.com/AstroMindinfotech/VFDS/internal/session"
)

// HTTPServer provides the WebSocket endpoint plus HTTP API endpoints for
// monitoring and management
type HTTPServer struct {
	server     *http.Server
	logger     *slog.Logger
	config     *config.Config
	sessionMgr *session.Manager
	analyzer   *analysis.Analyzer
	wsHandler  *WSHandler
	metrics    *metrics.Metrics

	startTime time.Time
}

// NewHTTPServer creates a new HTTP server with all routes configured
func NewHTTPServer(cfg *config.Config, logger *slog.Logger, sessionMgr *session.Manager,
	analyzer *analysis.Analyzer, wsHandler *WSHandler, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:     logger,
		config:     cfg,
		sessionMgr: sessionMgr,
		analyzer:   analyzer,
		wsHandler:  wsHandler,
		metrics:    m,
		startTime:  time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	// No ReadTimeout/WriteTimeout here: deadlines set before the WebSocket
	// hijack would tear down long-lived connections
	h.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// WebSocket analysis endpoint (no metrics wrapper: connections are
	// long-lived and tracked by their own metrics)
	mux.Handle("/ws", h.wsHandler)

	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// API test endpoints
	mux.HandleFunc("/api/test", h.withMetrics("/api/test", h.handleAPITest))
	mux.HandleFunc("/api/analyze", h.withMetrics("/api/analyze", h.handleAPIAnalyze))

	// Session monitoring endpoints
	mux.HandleFunc("/sessions", h.withMetrics("/sessions", h.handleSessions))
	mux.HandleFunc("/sessions/", h.withMetrics("/sessions/{id}", h.handleSessionDetail))

	// Configuration endpoint
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Statistics endpoint
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}

		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP server...")

	return h.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(h.startTime)
	wsStats := h.wsHandler.GetStatistics()
	analyzerStats := h.analyzer.GetStats()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]interface{}{
			"name":    "voice-fraud-detection-service",
			"version": "1.0.0",
		},
		"components": map[string]interface{}{
			"websocket": map[string]interface{}{
				"status":             "running",
				"active_sessions":    wsStats.ActiveSessions,
				"messages_received":  wsStats.MessagesReceived,
				"messages_processed": wsStats.MessagesProcessed,
				"parse_errors":       wsStats.ParseErrors,
			},
			"analyzer": map[string]interface{}{
				"status":         "running",
				"total_analyses": analyzerStats.TotalAnalyses,
				"error_count":    analyzerStats.ErrorCount,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleAPITest implements the /api/test endpoint
func (h *HTTPServer) handleAPITest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "API is working"})
}

// handleAPIAnalyze implements the /api/analyze endpoint. Batch analysis is
// not offered over HTTP; clients are directed to the WebSocket channel.
func (h *HTTPServer) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Use WebSocket for real-time analysis"})
}

// handleSessions implements the /sessions endpoint
func (h *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions := h.sessionMgr.GetAllSessions()
	sessionInfos := make([]session.SessionInfo, 0, len(sessions))

	for _, s := range sessions {
		sessionInfos = append(sessionInfos, s.GetSessionInfo())
	}

	response := map[string]interface{}{
		"total_sessions": len(sessionInfos),
		"timestamp":      time.Now().UTC(),
		"sessions":       sessionInfos,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleSessionDetail implements the /sessions/{id} endpoint
func (h *HTTPServer) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Path[len("/sessions/"):]
	if sessionID == "" {
		http.Error(w, "Session ID required", http.StatusBadRequest)
		return
	}

	s, exists := h.sessionMgr.GetSession(sessionID)
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.GetSessionInfo())
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sanitizedConfig := map[string]interface{}{
		"server": map[string]interface{}{
			"port":                       h.config.Server.Port,
			"bind_address":               h.config.Server.BindAddress,
			"max_concurrent_connections": h.config.Server.MaxConcurrentConnections,
			"read_limit":                 h.config.Server.ReadLimit,
			"session_timeout":            h.config.Server.SessionTimeout,
		},
		"audio": map[string]interface{}{
			"sample_rate":       h.config.Audio.SampleRate,
			"min_samples":       h.config.Audio.MinSamples,
			"max_payload_bytes": h.config.Audio.MaxPayloadBytes,
		},
		"analysis": map[string]interface{}{
			"default_sensitivity": h.config.Analysis.DefaultSensitivity,
			"replay_risk_factor":  h.config.Analysis.ReplayRiskFactor,
			"rms_weight":          h.config.Analysis.RMSWeight,
			"zcr_weight":          h.config.Analysis.ZCRWeight,
			"jitter_span":         h.config.Analysis.JitterSpan,
			"suspicious_level":    h.config.Analysis.SuspiciousLevel,
			"anomalous_level":     h.config.Analysis.AnomalousLevel,
			"default_model":       h.config.Analysis.DefaultModel,
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitizedConfig)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	wsStats := h.wsHandler.GetStatistics()
	analyzerStats := h.analyzer.GetStats()
	managerStats := h.sessionMgr.GetStats()
	uptime := time.Since(h.startTime)

	stats := map[string]interface{}{
		"uptime":    uptime.String(),
		"timestamp": time.Now().UTC(),
		"websocket": wsStats,
		"analyzer":  analyzerStats,
		"sessions":  managerStats,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "Voice Fraud Detection Service",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"WS  /ws":            "Real-time audio analysis channel",
			"GET /":              "API documentation",
			"GET /health":        "Service health check",
			"GET /api/test":      "API availability check",
			"POST /api/analyze":  "Batch analysis placeholder",
			"GET /sessions":      "List all active sessions",
			"GET /sessions/{id}": "Get detailed session information",
			"GET /config":        "Get service configuration",
			"GET /stats":         "Get service statistics",
			"GET /metrics":       "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}
