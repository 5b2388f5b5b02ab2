package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestHTTPServer(t *testing.T) (*HTTPServer, *WSHandler) {
	t.Helper()

	cfg := testConfig()
	wsHandler, mgr := newTestHandler(t, cfg)

	return NewHTTPServer(cfg, testLogger(), mgr, wsHandler.analyzer, wsHandler, testMetrics), wsHandler
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return body
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestHTTPServer(t)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body := decodeJSONBody(t, rec)
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body["status"])
	}
	if body["components"] == nil {
		t.Error("Expected components in health response")
	}
}

func TestHandleHealthMethodNotAllowed(t *testing.T) {
	srv, _ := newTestHTTPServer(t)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

func TestHandleAPITest(t *testing.T) {
	srv, _ := newTestHTTPServer(t)

	rec := httptest.NewRecorder()
	srv.handleAPITest(rec, httptest.NewRequest(http.MethodGet, "/api/test", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body := decodeJSONBody(t, rec)
	if body["message"] != "API is working" {
		t.Errorf("Unexpected message: %v", body["message"])
	}
}

func TestHandleAPIAnalyzeRedirectsToWebSocket(t *testing.T) {
	srv, _ := newTestHTTPServer(t)

	rec := httptest.NewRecorder()
	srv.handleAPIAnalyze(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body := decodeJSONBody(t, rec)
	if body["message"] != "Use WebSocket for real-time analysis" {
		t.Errorf("Unexpected message: %v", body["message"])
	}

	rec = httptest.NewRecorder()
	srv.handleAPIAnalyze(rec, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405 for GET, got %d", rec.Code)
	}
}

func TestHandleSessionsEmpty(t *testing.T) {
	srv, _ := newTestHTTPServer(t)

	rec := httptest.NewRecorder()
	srv.handleSessions(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body := decodeJSONBody(t, rec)
	if body["total_sessions"] != float64(0) {
		t.Errorf("Expected 0 sessions, got %v", body["total_sessions"])
	}
}

func TestHandleSessionDetailNotFound(t *testing.T) {
	srv, _ := newTestHTTPServer(t)

	rec := httptest.NewRecorder()
	srv.handleSessionDetail(rec, httptest.NewRequest(http.MethodGet, "/sessions/no-such-id", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.handleSessionDetail(rec, httptest.NewRequest(http.MethodGet, "/sessions/", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty ID, got %d", rec.Code)
	}
}

func TestHandleConfigSanitized(t *testing.T) {
	srv, _ := newTestHTTPServer(t)

	rec := httptest.NewRecorder()
	srv.handleConfig(rec, httptest.NewRequest(http.MethodGet, "/config", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body := decodeJSONBody(t, rec)
	for _, section := range []string{"server", "audio", "analysis", "logging"} {
		if body[section] == nil {
			t.Errorf("Expected '%s' section in config response", section)
		}
	}

	analysisSection, _ := body["analysis"].(map[string]any)
	if analysisSection["default_sensitivity"] != float64(6) {
		t.Errorf("Expected default sensitivity 6, got %v", analysisSection["default_sensitivity"])
	}
}

func TestHandleStats(t *testing.T) {
	srv, _ := newTestHTTPServer(t)

	rec := httptest.NewRecorder()
	srv.handleStats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body := decodeJSONBody(t, rec)
	for _, field := range []string{"uptime", "websocket", "analyzer", "sessions"} {
		if body[field] == nil {
			t.Errorf("Expected '%s' field in stats response", field)
		}
	}
}

func TestHandleRoot(t *testing.T) {
	srv, _ := newTestHTTPServer(t)

	rec := httptest.NewRecorder()
	srv.handleRoot(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body := decodeJSONBody(t, rec)
	if body["endpoints"] == nil {
		t.Error("Expected endpoint listing in root response")
	}

	rec = httptest.NewRecorder()
	srv.handleRoot(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown path, got %d", rec.Code)
	}
}
