package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# style name or JSON path used for summaries (default "auto")
style: "auto"
# mouse support (TUI-mode only)
mouse: false
# word-wrap at width (0 detects the terminal width)
width: 0
# show line numbers (TUI-mode only)
showLineNumbers: false

rehearsal:
  # Partner voice: mock, silence, piper or neural
  voice: "piper"
  # Never use a network voice, even when neural is selected
  local_only: false
  # How your lines are heard: off, simulated or typed
  listen: "off"
  # Hide the text of your lines and keep what you said instead
  improv: false

  # PCM sample rate shared by every voice
  sample_rate: 22050
  # Consecutive voice failures before switching to the local fallback
  max_failures: 2

  # YAML tone table merged over the built-in tones
  # tone_table: "/path/to/tones.yml"
  # YAML per-character voice overrides
  # overrides: "/path/to/characters.yml"

  timing:
    max_listen: "8s"
    silence_after_speech: "1.5s"
    words_per_minute: 160

  cache:
    enabled: true
    # dir: "/path/to/cache"
    memory_mb: 64
    disk_mb: 512
    compression_level: 3

  piper:
    binary: "piper"
    model: "en_US-lessac-medium"
    # model_path: "/path/to/model.onnx"
    # config_path: "/path/to/model.onnx.json"
    # data_dir: "/usr/share/piper"
    speaker_id: 0
    noise_scale: 0.667
    noise_w: 0.8
    timeout: "30s"

  neural:
    base_url: "https://api.elevenlabs.io"
    # api_key: "your-api-key-here"
    # voice_id: "your-voice-id"
    model_id: "eleven_multilingual_v2"
    requests_per_minute: 20
    timeout: "15s"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the cueline config file",
	Long:    paragraph(fmt.Sprintf("\n%s the cueline config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("cueline config\ncueline config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Cueline", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
