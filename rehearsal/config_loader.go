package rehearsal

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads rehearsal configuration from Viper. Keys live
// under "rehearsal." in the config file.
func LoadConfigFromViper() (Config, error) {
	return LoadConfig(viper.GetViper())
}

// LoadConfig loads rehearsal configuration from v.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	// Session settings
	if v.IsSet("rehearsal.voice") {
		cfg.Voice = v.GetString("rehearsal.voice")
	}
	if v.IsSet("rehearsal.local_only") {
		cfg.LocalOnly = v.GetBool("rehearsal.local_only")
	}
	if v.IsSet("rehearsal.listen") {
		cfg.Listen = v.GetString("rehearsal.listen")
	}
	if v.IsSet("rehearsal.improv") {
		cfg.Improv = v.GetBool("rehearsal.improv")
	}

	// Audio settings
	if v.IsSet("rehearsal.sample_rate") {
		cfg.SampleRate = v.GetInt("rehearsal.sample_rate")
	}
	if v.IsSet("rehearsal.max_failures") {
		cfg.MaxFailures = v.GetInt("rehearsal.max_failures")
	}

	// Tone files
	if v.IsSet("rehearsal.tone_table") {
		cfg.ToneTable = v.GetString("rehearsal.tone_table")
	}
	if v.IsSet("rehearsal.overrides") {
		cfg.Overrides = v.GetString("rehearsal.overrides")
	}

	loadTimingConfig(v, &cfg.Timing)
	loadCacheConfig(v, &cfg.Cache)
	loadPiperConfig(v, &cfg.Piper)
	loadNeuralConfig(v, &cfg.Neural)

	// Validate the loaded configuration
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid rehearsal configuration: %w", err)
	}

	return cfg, nil
}

func loadTimingConfig(v *viper.Viper, cfg *TimingConfig) {
	if v.IsSet("rehearsal.timing.max_listen") {
		cfg.MaxListen = v.GetDuration("rehearsal.timing.max_listen")
	}
	if v.IsSet("rehearsal.timing.silence_after_speech") {
		cfg.SilenceAfterSpeech = v.GetDuration("rehearsal.timing.silence_after_speech")
	}
	if v.IsSet("rehearsal.timing.words_per_minute") {
		cfg.WordsPerMinute = v.GetInt("rehearsal.timing.words_per_minute")
	}
}

func loadCacheConfig(v *viper.Viper, cfg *CacheConfig) {
	if v.IsSet("rehearsal.cache.enabled") {
		cfg.Enabled = v.GetBool("rehearsal.cache.enabled")
	}
	if v.IsSet("rehearsal.cache.dir") {
		cfg.Dir = v.GetString("rehearsal.cache.dir")
	}
	if v.IsSet("rehearsal.cache.memory_mb") {
		cfg.MemoryMB = v.GetInt("rehearsal.cache.memory_mb")
	}
	if v.IsSet("rehearsal.cache.disk_mb") {
		cfg.DiskMB = v.GetInt("rehearsal.cache.disk_mb")
	}
	if v.IsSet("rehearsal.cache.compression_level") {
		cfg.CompressionLevel = v.GetInt("rehearsal.cache.compression_level")
	}
}

func loadPiperConfig(v *viper.Viper, cfg *PiperConfig) {
	if v.IsSet("rehearsal.piper.binary") {
		cfg.Binary = v.GetString("rehearsal.piper.binary")
	}
	if v.IsSet("rehearsal.piper.model") {
		cfg.Model = v.GetString("rehearsal.piper.model")
	}
	if v.IsSet("rehearsal.piper.model_path") {
		cfg.ModelPath = v.GetString("rehearsal.piper.model_path")
	}
	if v.IsSet("rehearsal.piper.config_path") {
		cfg.ConfigPath = v.GetString("rehearsal.piper.config_path")
	}
	if v.IsSet("rehearsal.piper.data_dir") {
		cfg.DataDir = v.GetString("rehearsal.piper.data_dir")
	}
	if v.IsSet("rehearsal.piper.speaker_id") {
		cfg.SpeakerID = v.GetInt("rehearsal.piper.speaker_id")
	}
	if v.IsSet("rehearsal.piper.noise_scale") {
		cfg.NoiseScale = v.GetFloat64("rehearsal.piper.noise_scale")
	}
	if v.IsSet("rehearsal.piper.noise_w") {
		cfg.NoiseW = v.GetFloat64("rehearsal.piper.noise_w")
	}
	if v.IsSet("rehearsal.piper.timeout") {
		cfg.Timeout = v.GetDuration("rehearsal.piper.timeout")
	}
}

func loadNeuralConfig(v *viper.Viper, cfg *NeuralConfig) {
	if v.IsSet("rehearsal.neural.base_url") {
		cfg.BaseURL = v.GetString("rehearsal.neural.base_url")
	}
	if v.IsSet("rehearsal.neural.api_key") {
		cfg.APIKey = v.GetString("rehearsal.neural.api_key")
	}
	if v.IsSet("rehearsal.neural.voice_id") {
		cfg.VoiceID = v.GetString("rehearsal.neural.voice_id")
	}
	if v.IsSet("rehearsal.neural.model_id") {
		cfg.ModelID = v.GetString("rehearsal.neural.model_id")
	}
	if v.IsSet("rehearsal.neural.requests_per_minute") {
		cfg.RequestsPerMinute = v.GetInt("rehearsal.neural.requests_per_minute")
	}
	if v.IsSet("rehearsal.neural.timeout") {
		cfg.Timeout = v.GetDuration("rehearsal.neural.timeout")
	}
}
