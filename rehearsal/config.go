package rehearsal

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Voice backends.
const (
	VoiceMock    = "mock"
	VoiceSilence = "silence"
	VoicePiper   = "piper"
	VoiceNeural  = "neural"
)

// Listen modes.
const (
	ListenOff       = "off"
	ListenSimulated = "simulated"
	ListenTyped     = "typed"
)

// Config contains all rehearsal configuration options.
type Config struct {
	// Session settings
	Voice     string `yaml:"voice"`      // mock, silence, piper or neural
	LocalOnly bool   `yaml:"local_only"` // Never use a network voice
	Listen    string `yaml:"listen"`     // off, simulated or typed
	Improv    bool   `yaml:"improv"`

	// Audio settings
	SampleRate  int `yaml:"sample_rate"`
	MaxFailures int `yaml:"max_failures"` // Primary voice failures before falling back

	// Tone files
	ToneTable string `yaml:"tone_table"` // YAML tone table merged over the built-ins
	Overrides string `yaml:"overrides"`  // YAML per-character voice overrides

	Timing TimingConfig `yaml:"timing"`
	Cache  CacheConfig  `yaml:"cache"`
	Piper  PiperConfig  `yaml:"piper"`
	Neural NeuralConfig `yaml:"neural"`
}

// TimingConfig holds the listening and pacing policies.
type TimingConfig struct {
	MaxListen          time.Duration `yaml:"max_listen"`
	SilenceAfterSpeech time.Duration `yaml:"silence_after_speech"`
	WordsPerMinute     int           `yaml:"words_per_minute"` // Pacing for the silence voice and simulated speech
}

// CacheConfig contains synthesized audio cache settings.
type CacheConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Dir              string `yaml:"dir"`
	MemoryMB         int    `yaml:"memory_mb"`
	DiskMB           int    `yaml:"disk_mb"`
	CompressionLevel int    `yaml:"compression_level"`
}

// PiperConfig contains Piper settings.
type PiperConfig struct {
	Binary     string        `yaml:"binary"`
	Model      string        `yaml:"model"`
	ModelPath  string        `yaml:"model_path"`
	ConfigPath string        `yaml:"config_path"`
	DataDir    string        `yaml:"data_dir"`
	SpeakerID  int           `yaml:"speaker_id"`
	NoiseScale float64       `yaml:"noise_scale"`
	NoiseW     float64       `yaml:"noise_w"`
	Timeout    time.Duration `yaml:"timeout"`
}

// NeuralConfig contains settings for the remote neural voice.
type NeuralConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	VoiceID           string        `yaml:"voice_id"`
	ModelID           string        `yaml:"model_id"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Voice:     VoicePiper,
		LocalOnly: false,
		Listen:    ListenOff,
		Improv:    false,

		SampleRate:  22050,
		MaxFailures: 2,

		Timing: TimingConfig{
			MaxListen:          8 * time.Second,
			SilenceAfterSpeech: 1500 * time.Millisecond,
			WordsPerMinute:     160,
		},
		Cache:  DefaultCacheConfig(),
		Piper:  DefaultPiperConfig(),
		Neural: DefaultNeuralConfig(),
	}
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:          true,
		MemoryMB:         64,
		DiskMB:           512,
		CompressionLevel: 3,
	}
}

// DefaultPiperConfig returns default Piper configuration.
func DefaultPiperConfig() PiperConfig {
	cfg := PiperConfig{
		Binary:     "piper",
		Model:      "en_US-lessac-medium",
		NoiseScale: 0.667,
		NoiseW:     0.8,
		Timeout:    30 * time.Second,
	}

	// Try to detect common Piper installation paths
	switch runtime.GOOS {
	case "linux":
		cfg.DataDir = filepath.Join("/usr", "share", "piper")
	case "darwin":
		cfg.DataDir = filepath.Join("/usr", "local", "share", "piper")
	}

	return cfg
}

// DefaultNeuralConfig returns default neural voice configuration.
func DefaultNeuralConfig() NeuralConfig {
	return NeuralConfig{
		BaseURL:           "https://api.elevenlabs.io",
		ModelID:           "eleven_multilingual_v2",
		RequestsPerMinute: 20,
		Timeout:           15 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	c.Voice = strings.ToLower(strings.TrimSpace(c.Voice))
	switch c.Voice {
	case VoiceMock, VoiceSilence, VoicePiper, VoiceNeural:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Voice)
	}

	c.Listen = strings.ToLower(strings.TrimSpace(c.Listen))
	switch c.Listen {
	case ListenOff, ListenSimulated, ListenTyped:
	default:
		return fmt.Errorf("%w: unknown listen mode %q", ErrInvalidConfig, c.Listen)
	}

	if c.SampleRate < 8000 || c.SampleRate > 48000 {
		return fmt.Errorf("%w: sample rate must be between 8000 and 48000, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.MaxFailures < 1 {
		return fmt.Errorf("%w: max failures must be at least 1", ErrInvalidConfig)
	}

	if err := c.Timing.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if c.Voice == VoiceNeural {
		if err := c.Neural.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the timing policies.
func (c *TimingConfig) Validate() error {
	if c.MaxListen <= 0 {
		return fmt.Errorf("%w: max listen must be positive", ErrInvalidConfig)
	}
	if c.SilenceAfterSpeech <= 0 || c.SilenceAfterSpeech > c.MaxListen {
		return fmt.Errorf("%w: silence after speech must be positive and not exceed max listen", ErrInvalidConfig)
	}
	if c.WordsPerMinute < 40 || c.WordsPerMinute > 400 {
		return fmt.Errorf("%w: words per minute must be between 40 and 400", ErrInvalidConfig)
	}
	return nil
}

// Validate checks the cache settings.
func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MemoryMB < 0 || c.DiskMB < 0 {
		return fmt.Errorf("%w: cache sizes cannot be negative", ErrInvalidConfig)
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 22 {
		return fmt.Errorf("%w: compression level must be between 0 and 22", ErrInvalidConfig)
	}
	return nil
}

// Validate checks the neural voice settings.
func (c *NeuralConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: neural base url is required", ErrInvalidConfig)
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("%w: requests per minute must be positive", ErrInvalidConfig)
	}
	return nil
}

// EffectiveVoice resolves the backend actually used. LocalOnly turns a
// neural voice into the offline piper voice.
func (c *Config) EffectiveVoice() string {
	if c.LocalOnly && c.Voice == VoiceNeural {
		return VoicePiper
	}
	return c.Voice
}
