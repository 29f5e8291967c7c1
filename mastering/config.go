package mastering

import (
	"fmt"

	"github.com/reftone/refmaster/dsp/core"
)

// LimiterConfig holds the Hyrax limiter parameters, all
// exposed because the source implementation hardcodes them as magic
// constants — each one is required to be configurable.
type LimiterConfig struct {
	Threshold       float64 // linear ceiling, default ~0.998138
	AttackMs        float64
	ReleaseMs       float64
	HoldMs          float64
	LookaheadMs     float64
	SmoothingStages [2]float64 // tau_s1, tau_s2 in ms
}

// DefaultLimiterConfig returns the Hyrax defaults.
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Threshold:       0.998138,
		AttackMs:        1.0,
		ReleaseMs:       3000.0,
		HoldMs:          1.0,
		LookaheadMs:     1.0,
		SmoothingStages: [2]float64{2.0, 12.0},
	}
}

// Config holds the engine's tunables.
type Config struct {
	InternalSampleRate float64
	FFTSize            int
	PieceSizeSeconds   float64
	MaxLengthMinutes   float64
	LinLogOversampling int
	LoessSpan          float64
	RMSCorrectionSteps int
	Limiter            LimiterConfig

	// ClippingSamplesThreshold and LimitedSamplesThreshold are the two
	// detect_limited heuristic cutoffs (defaults 8 and 128).
	ClippingSamplesThreshold int
	LimitedSamplesThreshold  int

	// PreserveEdgeBins controls whether the FIR synthesizer's H[1] and
	// H[N-1] edge-bin overrides are applied. Default true.
	PreserveEdgeBins bool

	// AllowEquality bypasses the TARGET == REFERENCE identity check
	// (error 4005), matching the original's allow_equality escape hatch.
	AllowEquality bool

	// TempFolder is scratch space handed to the Saver; the core never
	// writes there itself.
	TempFolder string

	// CacheDir, if non-empty, enables the reference statistics cache
	// cache directory for reference statistics. Empty disables caching.
	CacheDir string

	// PreviewSize is the excerpt length in samples for ResultSpec.Preview.
	PreviewSize int
}

// Option mutates a Config, following the dsp/core.ProcessorOption shape.
type Option func(*Config)

// DefaultConfig returns the engine's default tunables.
func DefaultConfig() Config {
	return Config{
		InternalSampleRate:       44100,
		FFTSize:                  32768,
		PieceSizeSeconds:         15,
		MaxLengthMinutes:         60,
		LinLogOversampling:       4,
		LoessSpan:                0.075,
		RMSCorrectionSteps:       4,
		Limiter:                  DefaultLimiterConfig(),
		ClippingSamplesThreshold: 8,
		LimitedSamplesThreshold:  128,
		PreserveEdgeBins:         true,
		AllowEquality:            false,
		TempFolder:               "",
		CacheDir:                 "",
		PreviewSize:              30 * 44100,
	}
}

// WithInternalSampleRate sets the fixed processing rate.
func WithInternalSampleRate(hz float64) Option {
	return func(c *Config) {
		if hz > 0 {
			c.InternalSampleRate = hz
		}
	}
}

// WithFFTSize sets N_FFT; must be a power of two.
func WithFFTSize(n int) Option {
	return func(c *Config) {
		if n > 0 && isPowerOfTwo(n) {
			c.FFTSize = n
		}
	}
}

// WithPieceSizeSeconds sets the Segmenter piece length.
func WithPieceSizeSeconds(seconds float64) Option {
	return func(c *Config) {
		if seconds > 0 {
			c.PieceSizeSeconds = seconds
		}
	}
}

// WithMaxLengthMinutes sets the input length validation cap.
func WithMaxLengthMinutes(minutes float64) Option {
	return func(c *Config) {
		if minutes > 0 {
			c.MaxLengthMinutes = minutes
		}
	}
}

// WithLinLogOversampling sets the log-grid density factor.
func WithLinLogOversampling(factor int) Option {
	return func(c *Config) {
		if factor > 0 {
			c.LinLogOversampling = factor
		}
	}
}

// WithLoessSpan sets the LOESS smoothing span fraction.
func WithLoessSpan(span float64) Option {
	return func(c *Config) {
		if span > 0 && span <= 1 {
			c.LoessSpan = span
		}
	}
}

// WithRMSCorrectionSteps sets K in the correction loop.
func WithRMSCorrectionSteps(k int) Option {
	return func(c *Config) {
		if k >= 1 {
			c.RMSCorrectionSteps = k
		}
	}
}

// WithLimiter sets the Hyrax limiter configuration.
func WithLimiter(lc LimiterConfig) Option {
	return func(c *Config) { c.Limiter = lc }
}

// WithLimiterThresholdDB sets the limiter ceiling as a dB value (e.g.
// -0.3) instead of the raw linear amplitude DefaultLimiterConfig uses.
func WithLimiterThresholdDB(db float64) Option {
	return func(c *Config) {
		if db <= 0 {
			c.Limiter.Threshold = core.DBToLinear(db)
		}
	}
}

// WithClippingThresholds sets the detect_limited heuristic cutoffs.
func WithClippingThresholds(clipping, limited int) Option {
	return func(c *Config) {
		if clipping > 0 {
			c.ClippingSamplesThreshold = clipping
		}

		if limited > 0 {
			c.LimitedSamplesThreshold = limited
		}
	}
}

// WithPreserveEdgeBins controls the H[1]/H[N-1] edge-bin overrides.
func WithPreserveEdgeBins(preserve bool) Option {
	return func(c *Config) { c.PreserveEdgeBins = preserve }
}

// WithAllowEquality bypasses the TARGET == REFERENCE identity check.
func WithAllowEquality(allow bool) Option {
	return func(c *Config) { c.AllowEquality = allow }
}

// WithTempFolder sets the Saver scratch directory.
func WithTempFolder(dir string) Option {
	return func(c *Config) { c.TempFolder = dir }
}

// WithCacheDir enables the reference statistics cache at dir.
func WithCacheDir(dir string) Option {
	return func(c *Config) { c.CacheDir = dir }
}

// WithPreviewSize sets the preview excerpt length in samples.
func WithPreviewSize(samples int) Option {
	return func(c *Config) {
		if samples > 0 {
			c.PreviewSize = samples
		}
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// Validate checks invariants that are cheap to verify up front:
// power-of-two FFT size, positive piece size, in-range threshold.
func (c Config) Validate() error {
	if !isPowerOfTwo(c.FFTSize) {
		return fmt.Errorf("%w: fft size must be a power of two, got %d", ErrInvalidConfig, c.FFTSize)
	}

	if c.PieceSizeSeconds <= 0 {
		return fmt.Errorf("%w: piece size must be > 0, got %f", ErrInvalidConfig, c.PieceSizeSeconds)
	}

	if c.Limiter.Threshold <= 0 || c.Limiter.Threshold > 1 {
		return fmt.Errorf("%w: limiter threshold must be in (0, 1], got %f", ErrInvalidConfig, c.Limiter.Threshold)
	}

	if c.RMSCorrectionSteps < 1 {
		return fmt.Errorf("%w: rms correction steps must be >= 1, got %d", ErrInvalidConfig, c.RMSCorrectionSteps)
	}

	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
