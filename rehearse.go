package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cueline/internal/audio"
	"github.com/dgnsrekt/cueline/internal/cache"
	"github.com/dgnsrekt/cueline/listen"
	"github.com/dgnsrekt/cueline/rehearsal"
	"github.com/dgnsrekt/cueline/script"
	"github.com/dgnsrekt/cueline/tone"
	"github.com/dgnsrekt/cueline/ui"
	"github.com/dgnsrekt/cueline/voice"
	gap "github.com/muesli/go-app-paths"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	mockLineDuration = 1500 * time.Millisecond
	simulatedWordGap = 250 * time.Millisecond
	typedMaxListen   = 10 * time.Minute

	prefetchSubscriber = "prefetch"
	prefetchLookahead  = 3
)

func execute(cmd *cobra.Command, args []string) error {
	cfg, err := rehearsal.LoadConfigFromViper()
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	s, path, err := loadScript(args[0], store)
	if err != nil {
		return err
	}

	users, err := resolveCharacters(s, asCharacters)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		log.Info("no --as given; the partner reads every line")
	}

	lineMode := noTUI || !term.IsTerminal(int(os.Stdout.Fd()))
	if cfg.Listen == rehearsal.ListenTyped && !lineMode {
		return errors.New("--listen typed reads your lines from stdin and needs --no-tui")
	}

	mapper, err := buildMapper(cfg)
	if err != nil {
		return err
	}

	voiceOut, err := buildVoice(cfg)
	if err != nil {
		return err
	}
	defer voiceOut.Close() //nolint:errcheck

	opts := []rehearsal.Option{
		rehearsal.WithMapper(mapper),
		rehearsal.WithUserCharacters(users...),
		rehearsal.WithImprov(cfg.Improv),
	}
	if in := buildSpeech(cfg, os.Stdin); in != nil {
		opts = append(opts, rehearsal.WithSpeechInput(in))
	}

	engine, err := rehearsal.New(s, voiceOut.voice, opts...)
	if err != nil {
		return fmt.Errorf("unable to start rehearsal: %w", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if voiceOut.prefetch != nil {
		events := engine.Subscribe(prefetchSubscriber, 16)
		go feedPrefetch(ctx, engine, events, voiceOut.prefetch)
	}

	from := max(fromLine-1, 0)
	if lineMode {
		return runLines(ctx, engine, lineOptions{
			from:         from,
			in:           os.Stdin,
			out:          os.Stdout,
			readCommands: cfg.Listen != rehearsal.ListenTyped,
			style:        style,
			width:        int(width), //nolint:gosec
		})
	}
	if cmd.Flags().Changed("from") {
		engine.Start(from)
	}
	return runTUI(ctx, engine, path)
}

func runTUI(ctx context.Context, engine *rehearsal.Engine, path string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or the flag/config style if that is invalid
	if err := validateStyle(cfg.GlamourStyle); err != nil {
		cfg.GlamourStyle = style
	}

	cfg.Path = path
	cfg.ShowLineNumbers = showLineNumbers
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse

	if err := ui.Run(ctx, cfg, engine); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func openStore() (*script.Store, error) {
	dir, err := gap.NewScope(gap.User, "cueline").DataPath("scripts")
	if err != nil {
		return nil, fmt.Errorf("unable to find data directory: %w", err)
	}
	return script.NewStore(dir) //nolint:wrapcheck
}

// loadScript reads a script file, stdin ("-") or a saved script ID. The
// returned path is empty unless the script came from a file.
func loadScript(arg string, store *script.Store) (*script.Script, string, error) {
	if arg == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("unable to read from stdin: %w", err)
		}
		s, err := script.Parse("stdin", string(b))
		return s, "", err //nolint:wrapcheck
	}

	b, err := os.ReadFile(expandPath(arg))
	if err == nil {
		title := strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
		s, err := script.Parse(title, string(b))
		if err != nil {
			return nil, "", fmt.Errorf("unable to parse %s: %w", arg, err)
		}
		return s, expandPath(arg), nil
	}
	if !errors.Is(err, os.ErrNotExist) || store == nil {
		return nil, "", fmt.Errorf("unable to open file: %w", err)
	}

	s, serr := store.Load(arg)
	if serr != nil {
		return nil, "", fmt.Errorf("no script file or saved script named %q", arg)
	}
	return s, "", nil
}

// resolveCharacters maps each --as name onto the script's roster, exact
// match first, then the best fuzzy match.
func resolveCharacters(s *script.Script, names []string) ([]string, error) {
	roster := s.CharacterNames()
	var out []string
	for _, name := range names {
		if c, ok := s.Character(name); ok {
			out = append(out, c.Name)
			continue
		}
		matches := fuzzy.Find(strings.ToUpper(strings.TrimSpace(name)), roster)
		if len(matches) == 0 {
			return nil, fmt.Errorf("no character matches %q; the script has %s", name, strings.Join(roster, ", "))
		}
		log.Debug("fuzzy matched character", "input", name, "match", matches[0].Str)
		out = append(out, matches[0].Str)
	}
	return out, nil
}

func buildMapper(cfg rehearsal.Config) (*tone.Mapper, error) {
	var opts []tone.Option
	if cfg.ToneTable != "" {
		t, err := tone.LoadTable(expandPath(cfg.ToneTable))
		if err != nil {
			return nil, fmt.Errorf("unable to load tone table: %w", err)
		}
		opts = append(opts, tone.WithTable(t))
	}
	if cfg.Overrides != "" {
		o, err := tone.LoadOverrides(expandPath(cfg.Overrides))
		if err != nil {
			return nil, fmt.Errorf("unable to load character overrides: %w", err)
		}
		opts = append(opts, tone.WithOverrides(o))
	}
	return tone.NewMapper(opts...), nil
}

// partner is the assembled voice side of a session.
type partner struct {
	voice rehearsal.VoiceOutput
	// prefetch warms the audio cache; nil when nothing is cached.
	prefetch *voice.Prefetcher
	closers  []func() error
}

// Close releases the audio device and flushes the cache.
func (p *partner) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i]())
	}
	return errors.Join(errs...)
}

// buildVoice assembles the partner voice. Remote and offline synthesizers
// fall back to paced silence, so a line always completes.
func buildVoice(cfg rehearsal.Config) (*partner, error) {
	backend := cfg.EffectiveVoice()
	if backend == rehearsal.VoiceMock {
		return &partner{voice: voice.NewMock(mockLineDuration)}, nil
	}

	p := &partner{}
	format := audio.Format{SampleRate: cfg.SampleRate, Channels: 1}
	var player voice.Player
	if ap, err := audio.NewPlayer(audio.PlayerConfig{Format: format, BufferSize: audio.DefaultPlayerConfig().BufferSize}); err != nil {
		log.Warn("no audio output, lines will be paced silently", "error", err)
		player = audio.NewMockPlayer(format)
	} else {
		player = ap
		p.closers = append(p.closers, ap.Close)
	}

	var audioCache *cache.Manager
	if cfg.Cache.Enabled && backend != rehearsal.VoiceSilence {
		m, err := openCache(cfg.Cache)
		if err != nil {
			log.Warn("audio cache disabled", "error", err)
		} else {
			audioCache = m
			p.closers = append(p.closers, m.Close)
		}
	}
	// top is the cache tier of the preferred backend; prefetching warms it.
	var top *voice.CachedSynth
	cached := func(s voice.Synthesizer) voice.Synthesizer {
		if audioCache == nil {
			return s
		}
		top = voice.NewCachedSynth(s, audioCache)
		return top
	}

	var synth voice.Synthesizer = voice.NewPacedSilence(format, cfg.Timing.WordsPerMinute)
	if backend == rehearsal.VoicePiper || backend == rehearsal.VoiceNeural {
		if piper := voice.NewPiperSynth(cfg.Piper); piper.Available() || backend == rehearsal.VoicePiper {
			synth = voice.NewFallbackSynth(cached(piper), synth, cfg.MaxFailures)
		}
	}
	if backend == rehearsal.VoiceNeural {
		neural, err := voice.NewNeuralSynth(cfg.Neural, cfg.SampleRate)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("unable to set up neural voice: %w", err)
		}
		synth = voice.NewFallbackSynth(cached(neural), synth, cfg.MaxFailures)
	}
	log.Debug("partner voice ready", "backend", backend, "synth", synth.Name())

	p.voice = voice.NewSynthVoice(synth, player)
	if top != nil {
		p.prefetch = voice.NewPrefetcher(top)
	}
	return p, nil
}

// feedPrefetch queues the next partner lines whenever the rehearsal moves.
func feedPrefetch(ctx context.Context, e *rehearsal.Engine, events <-chan rehearsal.Event, p *voice.Prefetcher) {
	defer e.Unsubscribe(prefetchSubscriber)

	go p.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind != rehearsal.EventPartnerLine && ev.Kind != rehearsal.EventUserLine && ev.Kind != rehearsal.EventStateChanged {
				continue
			}
			cues := e.UpcomingPartnerLines(prefetchLookahead)
			items := make([]voice.PrefetchItem, 0, len(cues))
			for _, c := range cues {
				items = append(items, voice.PrefetchItem{Text: c.Line.Text, Profile: c.Profile})
			}
			p.Queue(items...)
		}
	}
}

func openCache(cfg rehearsal.CacheConfig) (*cache.Manager, error) {
	dir := cfg.Dir
	if dir == "" {
		d, err := gap.NewScope(gap.User, "cueline").CacheDir()
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		dir = filepath.Join(d, "audio")
	}

	c := cache.DefaultConfig()
	c.DiskPath = expandPath(dir)
	c.MemoryCapacity = int64(cfg.MemoryMB) * 1024 * 1024
	c.DiskCapacity = int64(cfg.DiskMB) * 1024 * 1024
	c.CompressionLevel = cfg.CompressionLevel
	return cache.NewManager(c) //nolint:wrapcheck
}

// buildSpeech returns the speech input for the configured listen mode, or
// nil when listening is off.
func buildSpeech(cfg rehearsal.Config, stdin io.Reader) rehearsal.SpeechInput {
	opts := listen.Options{
		MaxDuration:        cfg.Timing.MaxListen,
		SilenceAfterSpeech: cfg.Timing.SilenceAfterSpeech,
	}
	switch cfg.Listen {
	case rehearsal.ListenSimulated:
		return listen.NewListener(listen.NewEcho(simulatedWordGap), opts)
	case rehearsal.ListenTyped:
		// Each typed line arrives final; only the overall cap matters.
		opts.MaxDuration = typedMaxListen
		return listen.NewListener(listen.NewTyped(stdin), opts)
	default:
		return nil
	}
}
