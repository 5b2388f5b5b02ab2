package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseClientMessage(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		expectError bool
		errorMsg    string
		checkFn     func(*testing.T, *ClientMessage)
	}{
		{
			name: "valid audio message",
			data: `{"type":"audio","data":"AAAA","sensitivity":8,"model":"strict"}`,
			checkFn: func(t *testing.T, m *ClientMessage) {
				if m.Type != MessageTypeAudio {
					t.Errorf("Expected type audio, got %s", m.Type)
				}
				if m.Data != "AAAA" {
					t.Errorf("Expected data AAAA, got %s", m.Data)
				}
				if m.Sensitivity == nil || *m.Sensitivity != 8 {
					t.Errorf("Expected sensitivity 8, got %v", m.Sensitivity)
				}
				if m.Model != "strict" {
					t.Errorf("Expected model strict, got %s", m.Model)
				}
			},
		},
		{
			name: "valid ping message",
			data: `{"type":"ping"}`,
			checkFn: func(t *testing.T, m *ClientMessage) {
				if m.Type != MessageTypePing {
					t.Errorf("Expected type ping, got %s", m.Type)
				}
			},
		},
		{
			name: "valid test message",
			data: `{"type":"test"}`,
		},
		{
			name:        "invalid JSON",
			data:        `{"type":"audio"`,
			expectError: true,
			errorMsg:    "invalid JSON",
		},
		{
			name:        "missing type",
			data:        `{"data":"AAAA"}`,
			expectError: true,
			errorMsg:    "missing message type",
		},
		{
			name:        "unknown type",
			data:        `{"type":"video"}`,
			expectError: true,
			errorMsg:    "unknown message type: video",
		},
		{
			name:        "audio without data",
			data:        `{"type":"audio"}`,
			expectError: true,
			errorMsg:    "no audio data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseClientMessage([]byte(tt.data))

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if tt.checkFn != nil {
				tt.checkFn(t, msg)
			}
		})
	}
}

func TestGetSensitivity(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		value    *float64
		expected float64
	}{
		{"absent falls back to default", nil, 0.6},
		{"explicit value", ptr(8), 0.8},
		{"zero is honored", ptr(0), 0},
		{"negative clamped to zero", ptr(-3), 0},
		{"above max clamped", ptr(15), 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ClientMessage{Type: MessageTypeAudio, Data: "AAAA", Sensitivity: tt.value}
			got := msg.GetSensitivity(DefaultSensitivity)
			if got != tt.expected {
				t.Errorf("Expected sensitivity %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestGetModel(t *testing.T) {
	msg := ClientMessage{Type: MessageTypeAudio, Data: "AAAA"}
	if got := msg.GetModel("balanced"); got != "balanced" {
		t.Errorf("Expected default model 'balanced', got '%s'", got)
	}

	msg.Model = "strict"
	if got := msg.GetModel("balanced"); got != "strict" {
		t.Errorf("Expected model 'strict', got '%s'", got)
	}
}

func TestTestResult(t *testing.T) {
	result := TestResult()

	if result.FraudScore != 0.3 {
		t.Errorf("Expected fraud score 0.3, got %f", result.FraudScore)
	}
	if result.ReplayRisk != 0.2 {
		t.Errorf("Expected replay risk 0.2, got %f", result.ReplayRisk)
	}
	if result.Confidence != 0.9 {
		t.Errorf("Expected confidence 0.9, got %f", result.Confidence)
	}
	if result.Breakdown.Spectral != "Normal" || result.Breakdown.Prosody != "Human-like" {
		t.Errorf("Unexpected breakdown: %+v", result.Breakdown)
	}
	if result.Timestamp == "" {
		t.Error("Expected timestamp to be set")
	}
}

func TestAnalysisResultSerialization(t *testing.T) {
	result := AnalysisResult{
		FraudScore:    0.42,
		ReplayRisk:    0.294,
		Confidence:    0.8,
		Breakdown:     Breakdown{Spectral: "Normal", Pitch: "Natural", Noise: "Clean", Prosody: "Natural"},
		Transcription: "Voice appears genuine",
		Timestamp:     Timestamp(),
		AudioLength:   1.5,
		ModelUsed:     "balanced",
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Failed to marshal result: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Result is not valid JSON: %v", err)
	}

	// Error field must be omitted on success responses
	if _, present := decoded["error"]; present {
		t.Error("Expected error field to be omitted for successful result")
	}

	for _, field := range []string{"fraud_score", "replay_risk", "confidence", "breakdown", "transcription", "timestamp"} {
		if _, present := decoded[field]; !present {
			t.Errorf("Expected field '%s' in serialized result", field)
		}
	}
}

func TestNewPong(t *testing.T) {
	pong := NewPong()
	if pong.Type != "pong" {
		t.Errorf("Expected type 'pong', got '%s'", pong.Type)
	}
	if pong.Timestamp == "" {
		t.Error("Expected timestamp to be set")
	}
}
