package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/AstroMindinfotech/VFDS/internal/analysis"
	"github.com/AstroMindinfotech/VFDS/internal/audio"
	"github.com/AstroMindinfotech/VFDS/internal/config"
	"github.com/AstroMindinfotech/VFDS/internal/metrics"
	"github.com/AstroMindinfotech/VFDS/internal/protocol"
	"github.com/AstroMindinfotech/VFDS/internal/session"
)

// WSHandler accepts WebSocket connections and runs the per-connection
// analysis loop
type WSHandler struct {
	logger     *slog.Logger
	sessionMgr *session.Manager
	analyzer   *analysis.Analyzer
	decoder    *audio.Decoder
	metrics    *metrics.Metrics

	readLimit          int64
	defaultSensitivity float64 // 0-10 scale
	defaultModel       string

	// Statistics
	messagesReceived  uint64
	messagesProcessed uint64
	parseErrors       uint64
	mu                sync.RWMutex
}

// WSStatistics represents WebSocket handler performance metrics
type WSStatistics struct {
	MessagesReceived  uint64 `json:"messages_received"`
	MessagesProcessed uint64 `json:"messages_processed"`
	ParseErrors       uint64 `json:"parse_errors"`
	ActiveSessions    uint64 `json:"active_sessions"`
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(cfg *config.Config, logger *slog.Logger, sessionMgr *session.Manager,
	analyzer *analysis.Analyzer, m *metrics.Metrics) *WSHandler {

	return &WSHandler{
		logger:             logger,
		sessionMgr:         sessionMgr,
		analyzer:           analyzer,
		decoder:            audio.NewDecoder(cfg.Audio.MaxPayloadBytes),
		metrics:            m,
		readLimit:          cfg.Server.ReadLimit,
		defaultSensitivity: cfg.Analysis.DefaultSensitivity,
		defaultModel:       cfg.Analysis.DefaultModel,
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and serves it
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.metrics.RecordConnectionError()
		h.logger.Warn("Failed to accept WebSocket connection",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}
	defer conn.CloseNow()

	conn.SetReadLimit(h.readLimit)

	sess, ctx, err := h.sessionMgr.CreateSession(r.Context(), r.RemoteAddr)
	if err != nil {
		h.metrics.RecordConnectionError()
		h.logger.Warn("Rejecting connection",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		conn.Close(websocket.StatusTryAgainLater, "connection limit reached")
		return
	}

	h.metrics.RecordConnectionOpened(h.sessionMgr.GetActiveSessionCount())
	h.logger.Info("New WebSocket connection established",
		slog.String("session_id", sess.ID),
		slog.String("remote_addr", r.RemoteAddr),
	)

	defer func() {
		h.sessionMgr.RemoveSession(sess.ID)
		h.metrics.RecordConnectionClosed(h.sessionMgr.GetActiveSessionCount())
	}()

	h.readLoop(ctx, conn, sess)

	conn.Close(websocket.StatusNormalClosure, "")
}

// readLoop reads inbound frames until the connection or session ends
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.logConnectionEnd(sess, err)
			return
		}

		h.mu.Lock()
		h.messagesReceived++
		h.mu.Unlock()

		response := h.dispatch(data, sess)

		if err := wsjson.Write(ctx, conn, response); err != nil {
			h.logger.Warn("Failed to write response",
				slog.String("session_id", sess.ID),
				slog.String("error", err.Error()),
			)
			return
		}
	}
}

// dispatch parses one inbound frame and produces the response payload.
// Malformed messages and decode failures produce error-bearing responses,
// never a transport failure.
func (h *WSHandler) dispatch(data []byte, sess *session.Session) any {
	msg, err := protocol.ParseClientMessage(data)
	if err != nil {
		h.mu.Lock()
		h.parseErrors++
		h.mu.Unlock()

		h.metrics.RecordMessageError()
		sess.RecordErrorResponse()
		sess.UpdateActivity()

		h.logger.Debug("Rejected client message",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
		return protocol.ErrorResponse{Error: err.Error()}
	}

	sess.RecordMessage(msg.Type)
	h.metrics.RecordMessageReceived(msg.Type)

	h.mu.Lock()
	h.messagesProcessed++
	h.mu.Unlock()

	switch msg.Type {
	case protocol.MessageTypeAudio:
		return h.handleAudio(msg, sess)

	case protocol.MessageTypePing:
		return protocol.NewPong()

	default: // protocol.MessageTypeTest
		return protocol.TestResult()
	}
}

// handleAudio decodes and analyzes one audio payload
func (h *WSHandler) handleAudio(msg *protocol.ClientMessage, sess *session.Session) any {
	startTime := time.Now()

	decoded, err := h.decoder.Decode(msg.Data)
	if err != nil {
		h.metrics.RecordDecodeError()
		sess.RecordErrorResponse()

		h.logger.Warn("Failed to decode audio payload",
			slog.String("session_id", sess.ID),
			slog.Int("payload_len", len(msg.Data)),
			slog.String("error", err.Error()),
		)

		fallbackScore := 0.5
		return protocol.ErrorResponse{
			Error:      "Failed to decode audio",
			FraudScore: &fallbackScore,
		}
	}

	result := h.analyzer.Analyze(decoded.Samples,
		msg.GetSensitivity(h.defaultSensitivity),
		msg.GetModel(h.defaultModel),
	)

	if result.Error != "" {
		sess.RecordErrorResponse()
	}

	h.metrics.RecordAnalysis(time.Since(startTime).Seconds(), result.FraudScore, len(decoded.Samples))

	h.logger.Debug("Audio payload analyzed",
		slog.String("session_id", sess.ID),
		slog.String("layout", decoded.Layout),
		slog.Int("samples", len(decoded.Samples)),
		slog.Float64("fraud_score", result.FraudScore),
		slog.Duration("duration", time.Since(startTime)),
	)

	return result
}

// logConnectionEnd logs the reason a read loop terminated
func (h *WSHandler) logConnectionEnd(sess *session.Session, err error) {
	status := websocket.CloseStatus(err)

	switch {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		h.logger.Info("WebSocket disconnected",
			slog.String("session_id", sess.ID),
		)
	case errors.Is(err, context.Canceled):
		h.logger.Info("WebSocket session cancelled",
			slog.String("session_id", sess.ID),
		)
	default:
		h.logger.Warn("WebSocket read failed",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}
}

// GetStatistics returns current handler statistics
func (h *WSHandler) GetStatistics() WSStatistics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return WSStatistics{
		MessagesReceived:  h.messagesReceived,
		MessagesProcessed: h.messagesProcessed,
		ParseErrors:       h.parseErrors,
		ActiveSessions:    uint64(h.sessionMgr.GetActiveSessionCount()),
	}
}
