// Package main provides the entry point for the cueline CLI application.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile      string
	debug           bool
	style           string
	width           uint
	showLineNumbers bool
	mouse           bool

	asCharacters []string
	voiceFlag    string
	listenFlag   string
	improv       bool
	localOnly    bool
	fromLine     int
	noTUI        bool

	logCloser = func() error { return nil }

	rootCmd = &cobra.Command{
		Use:   "cueline SCRIPT",
		Short: "Rehearse your lines with a partner that reads the rest",
		Long: paragraph(
			fmt.Sprintf("\nRehearse a script in the terminal. You play the characters given with %s; "+
				"cueline %s everyone else and waits for your lines.", keyword("--as"), keyword("voices")),
		),
		Example: paragraph("cueline play.txt --as hamlet\n" +
			"cueline play.txt --as alex --voice silence --no-tui\n" +
			"cueline play.txt --as alex --listen typed --improv --no-tui"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.ExactArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != styles.AutoStyle && styles.DefaultStyles[style] == nil {
		style = expandPath(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(expandPath(configFile))
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	debug = viper.GetBool("debug")
	closer, err := setupLog(debug)
	if err != nil {
		return fmt.Errorf("unable to set up logging: %w", err)
	}
	logCloser = closer

	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	showLineNumbers = viper.GetBool("showLineNumbers")

	// validate the glamour style
	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	// We want to use a special no-TTY style, when stdout is not a terminal
	// and there was no specific style passed by arg
	if !isTerminal && !cmd.Flags().Changed("style") {
		style = styles.NoTTYStyle
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") { //nolint:nestif
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

// expandPath expands a leading ~ and environment variables.
func expandPath(path string) string {
	home, err := os.UserHomeDir()
	if err == nil && (path == "~" || strings.HasPrefix(path, "~/")) {
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return os.ExpandEnv(path)
}

func main() {
	err := rootCmd.Execute()
	_ = logCloser()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write a debug log to the user cache directory")
	rootCmd.PersistentFlags().StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path")
	rootCmd.PersistentFlags().UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to detect)")

	// Rehearsal flags
	rootCmd.Flags().StringSliceVar(&asCharacters, "as", nil, "character you play (repeatable, fuzzy matched)")
	rootCmd.Flags().StringVar(&voiceFlag, "voice", "", "partner voice: mock, silence, piper or neural")
	rootCmd.Flags().StringVar(&listenFlag, "listen", "", "how your lines are heard: off, simulated or typed")
	rootCmd.Flags().BoolVar(&improv, "improv", false, "show only a cue for your lines and record what you say")
	rootCmd.Flags().BoolVar(&localOnly, "local-only", false, "never use a network voice")
	rootCmd.Flags().IntVar(&fromLine, "from", 0, "start at this line number")
	rootCmd.Flags().BoolVar(&noTUI, "no-tui", false, "rehearse line by line on stdout instead of the TUI")
	rootCmd.Flags().BoolVarP(&showLineNumbers, "line-numbers", "l", false, "show line numbers (TUI-mode only)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("style", rootCmd.PersistentFlags().Lookup("style"))
	_ = viper.BindPFlag("width", rootCmd.PersistentFlags().Lookup("width"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("showLineNumbers", rootCmd.Flags().Lookup("line-numbers"))
	_ = viper.BindPFlag("rehearsal.voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("rehearsal.listen", rootCmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("rehearsal.improv", rootCmd.Flags().Lookup("improv"))
	_ = viper.BindPFlag("rehearsal.local_only", rootCmd.Flags().Lookup("local-only"))

	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)

	rootCmd.AddCommand(configCmd, manCmd, parseCmd, tonesCmd, scriptsCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "cueline")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "cueline")}, dirs...)
	}

	if c := os.Getenv("CUELINE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("cueline")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("cueline")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "cueline.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
