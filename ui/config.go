package ui

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config contains TUI-specific configuration.
type Config struct {
	ShowLineNumbers bool   `env:"CUELINE_LINE_NUMBERS"`
	GlamourMaxWidth uint   `env:"CUELINE_WIDTH"        envDefault:"100"`
	GlamourStyle    string `env:"GLAMOUR_STYLE"        envDefault:"auto"`
	EnableMouse     bool   `env:"CUELINE_MOUSE"`
	AltScreen       bool   `env:"CUELINE_ALT_SCREEN"   envDefault:"true"`

	// Script file being rehearsed, watched for changes. Empty disables
	// reloading.
	Path string
}

// LoadConfig reads the display switches from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing ui config: %w", err)
	}
	return cfg, nil
}
