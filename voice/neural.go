package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dgnsrekt/cueline/internal/audio"
	"github.com/dgnsrekt/cueline/rehearsal"
	"github.com/dgnsrekt/cueline/tone"
)

// neuralRates are the PCM output formats the neural API offers.
var neuralRates = map[int]bool{16000: true, 22050: true, 24000: true, 44100: true}

// NeuralSynth calls an ElevenLabs-style text-to-speech endpoint and asks
// for raw PCM. Requests are rate limited per minute.
type NeuralSynth struct {
	baseURL    string
	apiKey     string
	voiceID    string
	modelID    string
	sampleRate int

	client  *http.Client
	limiter *rate.Limiter
}

var _ Synthesizer = (*NeuralSynth)(nil)

type neuralRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id,omitempty"`
	VoiceSettings neuralSettings `json:"voice_settings"`
}

type neuralSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	Speed           float64 `json:"speed"`
}

// NewNeuralSynth creates a neural synthesizer producing PCM at sampleRate.
func NewNeuralSynth(cfg rehearsal.NeuralConfig, sampleRate int) (*NeuralSynth, error) {
	if !neuralRates[sampleRate] {
		return nil, fmt.Errorf("neural voice cannot produce %d Hz audio", sampleRate)
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid neural base url: %w", err)
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &NeuralSynth{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		voiceID:    cfg.VoiceID,
		modelID:    cfg.ModelID,
		sampleRate: sampleRate,
		client:     &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}, nil
}

func (n *NeuralSynth) Name() string { return "neural" }

// Available reports whether credentials are configured.
func (n *NeuralSynth) Available() bool {
	return n.apiKey != "" && n.voiceID != ""
}

// Synthesize sends one line to the API.
func (n *NeuralSynth) Synthesize(ctx context.Context, text string, profile tone.VoiceProfile) ([]byte, error) {
	if err := checkText(text); err != nil {
		return nil, err
	}

	voiceID := n.voiceID
	if profile.VoiceID != "" {
		voiceID = profile.VoiceID
	}
	if n.apiKey == "" || voiceID == "" {
		return nil, fmt.Errorf("%w: neural voice needs an api key and a voice id", ErrUnavailable)
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	body, err := json.Marshal(neuralRequest{
		Text:    text,
		ModelID: n.modelID,
		VoiceSettings: neuralSettings{
			Stability:       profile.Stability,
			SimilarityBoost: 0.75,
			Style:           profile.Style,
			Speed:           neuralSpeed(profile.Speed()),
		},
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=pcm_%d",
		n.baseURL, url.PathEscape(voiceID), n.sampleRate)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: neural request: %v", ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: neural voice returned %s: %s",
			ErrSynthesisFailed, resp.Status, strings.TrimSpace(string(msg)))
	}

	pcm, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading neural audio: %v", ErrSynthesisFailed, err)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("%w: neural voice", ErrNoAudio)
	}
	if len(pcm) > maxAudioSize {
		return nil, fmt.Errorf("%w: neural output too large", ErrSynthesisFailed)
	}

	return audio.ScalePCM16(pcm, profile.Volume), nil
}

// neuralSpeed keeps speed inside the range the API accepts.
func neuralSpeed(speed float64) float64 {
	switch {
	case speed < 0.7:
		return 0.7
	case speed > 1.2:
		return 1.2
	default:
		return speed
	}
}
