package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgnsrekt/cueline/internal/audio"
	"github.com/dgnsrekt/cueline/rehearsal"
	"github.com/dgnsrekt/cueline/tone"
)

// maxAudioSize is a sanity bound on one line of piper output.
const maxAudioSize = 10 * 1024 * 1024

// PiperSynth runs the offline piper binary once per line with the text
// on stdin and raw PCM on stdout.
type PiperSynth struct {
	binary     string
	modelPath  string
	configPath string
	speakerID  int
	noiseScale float64
	noiseW     float64
	timeout    time.Duration
}

var _ Synthesizer = (*PiperSynth)(nil)

// NewPiperSynth creates a piper synthesizer. The model is ModelPath when
// set, otherwise Model looked up in DataDir.
func NewPiperSynth(cfg rehearsal.PiperConfig) *PiperSynth {
	modelPath := cfg.ModelPath
	if modelPath == "" && cfg.Model != "" {
		modelPath = filepath.Join(cfg.DataDir, cfg.Model+".onnx")
	}

	configPath := cfg.ConfigPath
	if configPath == "" && modelPath != "" {
		configPath = modelPath + ".json"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &PiperSynth{
		binary:     cfg.Binary,
		modelPath:  modelPath,
		configPath: configPath,
		speakerID:  cfg.SpeakerID,
		noiseScale: cfg.NoiseScale,
		noiseW:     cfg.NoiseW,
		timeout:    timeout,
	}
}

func (p *PiperSynth) Name() string { return "piper" }

// Available reports whether the binary and model can be found.
func (p *PiperSynth) Available() bool {
	if _, err := exec.LookPath(p.binary); err != nil {
		return false
	}
	_, err := os.Stat(p.modelPath)
	return err == nil
}

// Args returns the piper arguments for profile.
func (p *PiperSynth) Args(profile tone.VoiceProfile) []string {
	speed := profile.Speed()
	if speed <= 0 {
		speed = 1
	}

	args := []string{
		"--model", p.modelPath,
		"--output-raw",
		"--length-scale", strconv.FormatFloat(1/speed, 'f', 2, 64),
	}
	if p.configPath != "" {
		if _, err := os.Stat(p.configPath); err == nil {
			args = append(args, "--config", p.configPath)
		}
	}
	if p.noiseScale > 0 {
		args = append(args, "--noise-scale", strconv.FormatFloat(p.noiseScale, 'f', 3, 64))
	}
	if p.noiseW > 0 {
		args = append(args, "--noise-w", strconv.FormatFloat(p.noiseW, 'f', 3, 64))
	}

	speaker := p.speakerID
	if id, err := strconv.Atoi(profile.VoiceID); err == nil {
		speaker = id
	}
	if speaker > 0 {
		args = append(args, "--speaker", strconv.Itoa(speaker))
	}
	return args
}

// Synthesize runs piper. Piper has no pitch control; volume is applied to
// the samples afterwards.
func (p *PiperSynth) Synthesize(ctx context.Context, text string, profile tone.VoiceProfile) ([]byte, error) {
	if err := checkText(text); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary, p.Args(profile)...)

	// Pre-configure stdin so piper never races us for it.
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 100 * time.Millisecond

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: piper timed out after %s", ErrSynthesisFailed, p.timeout)
			}
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: piper: %v, stderr: %s", ErrSynthesisFailed, err, strings.TrimSpace(stderr.String()))
	}

	pcm := stdout.Bytes()
	if len(pcm) == 0 {
		return nil, fmt.Errorf("%w: piper, stderr: %s", ErrNoAudio, strings.TrimSpace(stderr.String()))
	}
	if len(pcm) > maxAudioSize {
		return nil, fmt.Errorf("%w: piper output too large: %d bytes", ErrSynthesisFailed, len(pcm))
	}

	return audio.ScalePCM16(pcm, profile.Volume), nil
}
