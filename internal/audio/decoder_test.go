package audio

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"strings"
	"testing"
)

func encodePCM16(samples []int16) string {
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestDecodePCM16(t *testing.T) {
	payload := encodePCM16([]int16{0, 16384, -16384, 32767})

	decoder := NewDecoder(1 << 20)
	decoded, err := decoder.Decode(payload)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	if decoded.Layout != LayoutPCM16 {
		t.Errorf("Expected layout %s, got %s", LayoutPCM16, decoded.Layout)
	}
	if len(decoded.Samples) != 4 {
		t.Fatalf("Expected 4 samples, got %d", len(decoded.Samples))
	}
	if decoded.Samples[0] != 0 {
		t.Errorf("Expected sample 0 to be 0, got %f", decoded.Samples[0])
	}
	if math.Abs(float64(decoded.Samples[1])-0.5) > 1e-6 {
		t.Errorf("Expected sample 1 to be 0.5, got %f", decoded.Samples[1])
	}
	if math.Abs(float64(decoded.Samples[2])+0.5) > 1e-6 {
		t.Errorf("Expected sample 2 to be -0.5, got %f", decoded.Samples[2])
	}
}

func TestDecodeOddLengthFallsBackToPCM8(t *testing.T) {
	raw := []byte{0x00, 0x40, 0xC0} // 3 bytes, only divisible by 1
	payload := base64.StdEncoding.EncodeToString(raw)

	decoded, err := NewDecoder(0).Decode(payload)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	if decoded.Layout != LayoutPCM8 {
		t.Errorf("Expected layout %s, got %s", LayoutPCM8, decoded.Layout)
	}
	if len(decoded.Samples) != 3 {
		t.Fatalf("Expected 3 samples, got %d", len(decoded.Samples))
	}
	if decoded.Samples[1] != 0.5 {
		t.Errorf("Expected sample 1 to be 0.5, got %f", decoded.Samples[1])
	}
	if decoded.Samples[2] != -0.5 {
		t.Errorf("Expected sample 2 to be -0.5, got %f", decoded.Samples[2])
	}
}

func TestDecodeDataURLPrefix(t *testing.T) {
	payload := "data:audio/wav;base64," + encodePCM16([]int16{1000, -1000})

	decoded, err := NewDecoder(0).Decode(payload)
	if err != nil {
		t.Fatalf("Failed to decode data URL payload: %v", err)
	}
	if len(decoded.Samples) != 2 {
		t.Errorf("Expected 2 samples, got %d", len(decoded.Samples))
	}
}

func TestDecodeInvalidBase64(t *testing.T) {
	_, err := NewDecoder(0).Decode("!!!not-base64!!!")
	if err == nil {
		t.Error("Expected error for invalid base64")
	}
	if !strings.Contains(err.Error(), "base64") {
		t.Errorf("Expected base64 error, got: %v", err)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	_, err := NewDecoder(0).Decode("")
	if err == nil {
		t.Error("Expected error for empty payload")
	}
	if !strings.Contains(err.Error(), "empty audio data") {
		t.Errorf("Expected empty audio error, got: %v", err)
	}
}

func TestDecodePayloadTooLarge(t *testing.T) {
	raw := make([]byte, 4096)
	payload := base64.StdEncoding.EncodeToString(raw)

	_, err := NewDecoder(1024).Decode(payload)
	if err == nil {
		t.Error("Expected error for oversized payload")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected size limit error, got: %v", err)
	}
}

func TestDecodeSamplesNeverPanics(t *testing.T) {
	// Arbitrary byte soup must always yield samples via some layout
	inputs := [][]byte{
		{0xFF},
		{0xFF, 0xFF},
		{0xFF, 0xFF, 0xFF},
		{0x00, 0x00, 0xC0, 0x7F}, // float32 NaN pattern
		make([]byte, 1001),
	}

	for _, raw := range inputs {
		decoded := DecodeSamples(raw)
		if len(decoded.Samples) == 0 {
			t.Errorf("Expected samples for %d-byte input, got none", len(raw))
		}
		for i, s := range decoded.Samples {
			if math.IsNaN(float64(s)) && decoded.Layout != LayoutFloat32 {
				t.Errorf("Unexpected NaN at sample %d for layout %s", i, decoded.Layout)
			}
		}
	}
}
