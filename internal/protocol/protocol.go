package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message types accepted on the WebSocket channel
const (
	MessageTypeAudio = "audio"
	MessageTypePing  = "ping"
	MessageTypeTest  = "test"

	// Sensitivity is supplied on a 0-10 scale and divided by 10 before use
	DefaultSensitivity = 6.0
	MaxSensitivity     = 10.0
)

// ClientMessage represents an inbound JSON frame from a client
type ClientMessage struct {
	Type        string   `json:"type"`
	Data        string   `json:"data,omitempty"`        // base64 audio payload, optionally with a data: URL prefix
	Sensitivity *float64 `json:"sensitivity,omitempty"` // 0-10 scale
	Model       string   `json:"model,omitempty"`       // echoed back, not otherwise used
}

// Breakdown contains the per-signal categorical labels of an analysis
type Breakdown struct {
	Spectral string `json:"spectral"`
	Pitch    string `json:"pitch"`
	Noise    string `json:"noise"`
	Prosody  string `json:"prosody"`
}

// AnalysisResult represents the outbound analysis response frame
type AnalysisResult struct {
	Error         string    `json:"error,omitempty"`
	FraudScore    float64   `json:"fraud_score"`
	ReplayRisk    float64   `json:"replay_risk"`
	Confidence    float64   `json:"confidence"`
	Breakdown     Breakdown `json:"breakdown"`
	Transcription string    `json:"transcription"`
	Timestamp     string    `json:"timestamp"`
	AudioLength   float64   `json:"audio_length,omitempty"` // seconds
	ModelUsed     string    `json:"model_used,omitempty"`
}

// Pong represents the outbound heartbeat response frame
type Pong struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse represents a minimal error-only response frame
type ErrorResponse struct {
	Error      string   `json:"error"`
	FraudScore *float64 `json:"fraud_score,omitempty"`
}

// TestResult returns the canned response for "test" messages
func TestResult() AnalysisResult {
	return AnalysisResult{
		FraudScore: 0.3,
		ReplayRisk: 0.2,
		Confidence: 0.9,
		Breakdown: Breakdown{
			Spectral: "Normal",
			Pitch:    "Natural",
			Noise:    "Clean",
			Prosody:  "Human-like",
		},
		Transcription: "System is working correctly",
		Timestamp:     Timestamp(),
	}
}

// NewPong returns a heartbeat response with the current timestamp
func NewPong() Pong {
	return Pong{
		Type:      "pong",
		Timestamp: Timestamp(),
	}
}

// Timestamp returns the current time formatted for response frames
func Timestamp() string {
	return time.Now().Format(time.RFC3339Nano)
}

// ParseClientMessage parses and validates an inbound JSON frame
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}

	return &msg, nil
}

// Validate validates the message type and field constraints
func (m *ClientMessage) Validate() error {
	switch m.Type {
	case MessageTypeAudio, MessageTypePing, MessageTypeTest:
	case "":
		return fmt.Errorf("missing message type")
	default:
		return fmt.Errorf("unknown message type: %s", m.Type)
	}

	if m.Type == MessageTypeAudio && m.Data == "" {
		return fmt.Errorf("no audio data")
	}

	return nil
}

// GetSensitivity returns the normalized sensitivity multiplier in [0, 1],
// falling back to the given default (0-10 scale) when the field is absent
// or out of range
func (m *ClientMessage) GetSensitivity(defaultSensitivity float64) float64 {
	value := defaultSensitivity
	if m.Sensitivity != nil {
		value = *m.Sensitivity
	}

	if value < 0 {
		value = 0
	}
	if value > MaxSensitivity {
		value = MaxSensitivity
	}

	return value / 10.0
}

// GetModel returns the requested model label, falling back to the given default
func (m *ClientMessage) GetModel(defaultModel string) string {
	if m.Model == "" {
		return defaultModel
	}
	return m.Model
}

// String returns a human-readable representation of the message
func (m *ClientMessage) String() string {
	sensitivity := "default"
	if m.Sensitivity != nil {
		sensitivity = fmt.Sprintf("%.1f", *m.Sensitivity)
	}
	return fmt.Sprintf("ClientMessage{Type:%s, DataLen:%d, Sensitivity:%s, Model:%q}",
		m.Type, len(m.Data), sensitivity, m.Model)
}
