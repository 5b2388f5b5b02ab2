package analysis

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/AstroMindinfotech/VFDS/internal/protocol"
)

// Config holds analyzer tuning parameters
type Config struct {
	SampleRate       int
	MinSamples       int
	ReplayRiskFactor float64
	RMSWeight        float64
	ZCRWeight        float64
	JitterSpan       float64 // width of the random score perturbation
	SuspiciousLevel  float64
	AnomalousLevel   float64
	NoiseRMSLevel    float64
	ProsodyLevel     float64
	SilenceRMSLevel  float64
}

// Analyzer computes mock fraud scores from basic signal statistics
type Analyzer struct {
	config Config
	rng    *rand.Rand

	// Statistics
	totalAnalyses uint64
	errorCount    uint64
	lastScore     float64
	lastAnalyzed  time.Time

	mu sync.Mutex
}

// AnalyzerStats represents analyzer statistics for monitoring
type AnalyzerStats struct {
	TotalAnalyses uint64    `json:"total_analyses"`
	ErrorCount    uint64    `json:"error_count"`
	LastScore     float64   `json:"last_score"`
	LastAnalyzed  time.Time `json:"last_analyzed"`
}

// NewAnalyzer creates an analyzer seeded from the current time
func NewAnalyzer(config Config) *Analyzer {
	return NewAnalyzerWithSource(config, rand.NewSource(time.Now().UnixNano()))
}

// NewAnalyzerWithSource creates an analyzer with an explicit random source,
// which makes jitter deterministic in tests
func NewAnalyzerWithSource(config Config, source rand.Source) *Analyzer {
	return &Analyzer{
		config: config,
		rng:    rand.New(source),
	}
}

// Analyze scores the given normalized samples and returns a complete result.
// sensitivity is the normalized multiplier in [0, 1], model is echoed back in
// the result. Inputs shorter than the configured minimum produce the default
// response with an error string rather than a failure.
func (a *Analyzer) Analyze(samples []float32, sensitivity float64, model string) protocol.AnalysisResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalAnalyses++
	a.lastAnalyzed = time.Now()

	if len(samples) < a.config.MinSamples {
		a.errorCount++
		return a.defaultResult("Audio too short")
	}

	rms := RMS(samples)
	zcr := ZeroCrossingRate(samples)

	raw := math.Min((rms*a.config.RMSWeight+zcr*a.config.ZCRWeight)/2, 1.0)

	// Random jitter simulates model uncertainty
	raw *= 1 - a.config.JitterSpan/2 + a.rng.Float64()*a.config.JitterSpan
	raw = math.Min(raw, 1.0)

	fraudScore := math.Min(raw*sensitivity, 1.0)
	a.lastScore = fraudScore

	return protocol.AnalysisResult{
		FraudScore:    fraudScore,
		ReplayRisk:    fraudScore * a.config.ReplayRiskFactor,
		Confidence:    0.7 + a.rng.Float64()*0.3,
		Breakdown:     a.breakdown(fraudScore, rms),
		Transcription: a.transcription(fraudScore, rms),
		Timestamp:     protocol.Timestamp(),
		AudioLength:   float64(len(samples)) / float64(a.config.SampleRate),
		ModelUsed:     model,
	}
}

// DefaultResult returns the constant-shaped fallback response carrying the
// given error string
func (a *Analyzer) DefaultResult(errorMsg string) protocol.AnalysisResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.errorCount++
	return a.defaultResult(errorMsg)
}

// defaultResult builds the fallback response; callers must hold the mutex
func (a *Analyzer) defaultResult(errorMsg string) protocol.AnalysisResult {
	return protocol.AnalysisResult{
		Error:      errorMsg,
		FraudScore: 0.5,
		ReplayRisk: 0.5,
		Confidence: 0,
		Breakdown: protocol.Breakdown{
			Spectral: "Unknown",
			Pitch:    "Unknown",
			Noise:    "Unknown",
			Prosody:  "Unknown",
		},
		Transcription: "Analysis failed",
		Timestamp:     protocol.Timestamp(),
	}
}

// breakdown selects the categorical labels for a fraud score
func (a *Analyzer) breakdown(fraudScore, rms float64) protocol.Breakdown {
	status := "Normal"
	switch {
	case fraudScore >= a.config.AnomalousLevel:
		status = "Anomalous"
	case fraudScore >= a.config.SuspiciousLevel:
		status = "Suspicious"
	}

	noise := "Clean"
	if rms >= a.config.NoiseRMSLevel {
		noise = "Noisy"
	}

	prosody := "Natural"
	if fraudScore >= a.config.ProsodyLevel {
		prosody = "Robotic"
	}

	return protocol.Breakdown{
		Spectral: status,
		Pitch:    status,
		Noise:    noise,
		Prosody:  prosody,
	}
}

// transcription selects the canned transcription text for a result
func (a *Analyzer) transcription(fraudScore, rms float64) string {
	switch {
	case rms < a.config.SilenceRMSLevel:
		return "[Background noise or silence]"
	case fraudScore < a.config.SuspiciousLevel:
		return "Voice appears genuine and natural"
	case fraudScore < a.config.AnomalousLevel:
		return "Voice shows some unusual characteristics"
	default:
		return "Voice shows significant anomalies"
	}
}

// GetStats returns current analyzer statistics
func (a *Analyzer) GetStats() AnalyzerStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return AnalyzerStats{
		TotalAnalyses: a.totalAnalyses,
		ErrorCount:    a.errorCount,
		LastScore:     a.lastScore,
		LastAnalyzed:  a.lastAnalyzed,
	}
}

// Reset resets the analyzer statistics
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalAnalyses = 0
	a.errorCount = 0
	a.lastScore = 0
	a.lastAnalyzed = time.Time{}
}

// RMS computes the root-mean-square energy of the samples
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// ZeroCrossingRate computes the fraction of adjacent sample pairs whose signs
// differ
func ZeroCrossingRate(samples []float32) float64 {
	if len(samples) < 2 {
		return 0
	}

	crossings := 0
	for i := 1; i < len(samples); i++ {
		if sign(samples[i]) != sign(samples[i-1]) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples))
}

// sign returns -1, 0, or 1 for a sample value
func sign(v float32) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
