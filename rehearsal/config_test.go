package rehearsal

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.Timing.MaxListen != 8*time.Second || cfg.Timing.SilenceAfterSpeech != 1500*time.Millisecond {
		t.Errorf("Unexpected listen defaults: %+v", cfg.Timing)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"unknown voice", func(c *Config) { c.Voice = "robot" }, ErrUnknownBackend},
		{"unknown listen", func(c *Config) { c.Listen = "telepathy" }, ErrInvalidConfig},
		{"sample rate", func(c *Config) { c.SampleRate = 100 }, ErrInvalidConfig},
		{"max failures", func(c *Config) { c.MaxFailures = 0 }, ErrInvalidConfig},
		{"silence longer than max", func(c *Config) { c.Timing.SilenceAfterSpeech = time.Minute }, ErrInvalidConfig},
		{"compression", func(c *Config) { c.Cache.CompressionLevel = 40 }, ErrInvalidConfig},
		{"neural without rate", func(c *Config) {
			c.Voice = VoiceNeural
			c.Neural.RequestsPerMinute = 0
		}, ErrInvalidConfig},
		{"case insensitive voice", func(c *Config) { c.Voice = " MOCK " }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEffectiveVoice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Voice = VoiceNeural
	if cfg.EffectiveVoice() != VoiceNeural {
		t.Error("Expected neural without local_only")
	}
	cfg.LocalOnly = true
	if cfg.EffectiveVoice() != VoicePiper {
		t.Error("Expected local_only to force the offline voice")
	}
}

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	v.Set("rehearsal.voice", "mock")
	v.Set("rehearsal.listen", "simulated")
	v.Set("rehearsal.improv", true)
	v.Set("rehearsal.timing.max_listen", "5s")
	v.Set("rehearsal.timing.silence_after_speech", "750ms")
	v.Set("rehearsal.cache.enabled", false)
	v.Set("rehearsal.neural.voice_id", "rachel")

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Voice != VoiceMock || cfg.Listen != ListenSimulated || !cfg.Improv {
		t.Errorf("Session settings not loaded: %+v", cfg)
	}
	if cfg.Timing.MaxListen != 5*time.Second || cfg.Timing.SilenceAfterSpeech != 750*time.Millisecond {
		t.Errorf("Timing not loaded: %+v", cfg.Timing)
	}
	if cfg.Cache.Enabled {
		t.Error("Expected cache disabled")
	}
	if cfg.Neural.VoiceID != "rachel" || cfg.Neural.BaseURL == "" {
		t.Errorf("Neural settings not merged over defaults: %+v", cfg.Neural)
	}

	v.Set("rehearsal.sample_rate", 3)
	if _, err := LoadConfig(v); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected invalid config error, got %v", err)
	}
}
