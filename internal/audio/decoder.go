package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Sample layouts tried during decoding, in order of preference
const (
	LayoutPCM16   = "pcm_s16le"
	LayoutFloat32 = "float32le"
	LayoutPCM8    = "pcm_s8"
)

// Normalization scales for the integer layouts
const (
	scalePCM16 = 32768.0
	scalePCM8  = 128.0
)

// DecodedAudio holds the normalized samples produced by the decoder
type DecodedAudio struct {
	Samples []float32 // normalized to [-1, 1]
	Layout  string    // layout that successfully decoded the payload
}

// Decoder converts base64-encoded audio payloads into normalized float
// samples. Clients do not declare the binary layout of their payload, so the
// decoder guesses: 16-bit signed PCM, then 32-bit float, then 8-bit signed
// PCM, all little-endian. A layout is only attempted when the payload length
// is an exact multiple of its element size; when nothing matches the payload
// is read as raw 8-bit samples.
type Decoder struct {
	maxPayloadBytes int
}

// layoutAttempt describes one candidate binary layout
type layoutAttempt struct {
	name        string
	elementSize int
	decode      func([]byte) ([]float32, bool)
}

// NewDecoder creates a decoder with the given payload size limit
func NewDecoder(maxPayloadBytes int) *Decoder {
	return &Decoder{maxPayloadBytes: maxPayloadBytes}
}

// Decode decodes a base64 audio payload into normalized samples
func (d *Decoder) Decode(payload string) (*DecodedAudio, error) {
	raw, err := DecodeBase64(payload)
	if err != nil {
		return nil, err
	}

	if d.maxPayloadBytes > 0 && len(raw) > d.maxPayloadBytes {
		return nil, fmt.Errorf("audio payload too large: %d bytes (limit %d)", len(raw), d.maxPayloadBytes)
	}

	return DecodeSamples(raw), nil
}

// DecodeBase64 strips any data: URL prefix and decodes the base64 payload
func DecodeBase64(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.IndexByte(payload, ','); idx >= 0 {
			payload = payload[idx+1:]
		}
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 audio: %w", err)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("empty audio data")
	}

	return raw, nil
}

// DecodeSamples converts raw audio bytes into normalized float samples,
// guessing the binary layout
func DecodeSamples(raw []byte) *DecodedAudio {
	attempts := []layoutAttempt{
		{LayoutPCM16, 2, decodePCM16},
		{LayoutFloat32, 4, decodeFloat32},
		{LayoutPCM8, 1, decodePCM8},
	}

	for _, attempt := range attempts {
		if len(raw)%attempt.elementSize != 0 {
			continue
		}
		if samples, ok := attempt.decode(raw); ok {
			return &DecodedAudio{Samples: samples, Layout: attempt.name}
		}
	}

	// Nothing matched cleanly, read the payload as raw 8-bit samples
	samples, _ := decodePCM8(raw)
	return &DecodedAudio{Samples: samples, Layout: LayoutPCM8}
}

// decodePCM16 interprets raw bytes as 16-bit signed little-endian PCM
func decodePCM16(raw []byte) ([]float32, bool) {
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		value := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(value) / scalePCM16
	}
	return samples, len(samples) > 0
}

// decodeFloat32 interprets raw bytes as 32-bit little-endian IEEE floats.
// Reports false when every decoded value is NaN, which indicates the payload
// is not actually float data.
func decodeFloat32(raw []byte) ([]float32, bool) {
	samples := make([]float32, len(raw)/4)
	allNaN := true
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		value := math.Float32frombits(bits)
		if !math.IsNaN(float64(value)) {
			allNaN = false
		}
		samples[i] = value
	}
	return samples, len(samples) > 0 && !allNaN
}

// decodePCM8 interprets raw bytes as 8-bit signed PCM
func decodePCM8(raw []byte) ([]float32, bool) {
	samples := make([]float32, len(raw))
	for i, b := range raw {
		samples[i] = float32(int8(b)) / scalePCM8
	}
	return samples, len(samples) > 0
}
