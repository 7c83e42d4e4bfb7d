package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// ErrNoSynthesizer means no text-to-speech backend is configured.
var ErrNoSynthesizer = errors.New("no speech synthesizer configured")

// Synthesizer renders text as MP3 audio. voice may be empty for the
// backend's default.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

const elevenLabsEndpoint = "https://api.elevenlabs.io/v1"

type ElevenLabs struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string
	client  *http.Client
}

func NewElevenLabs(apiKey, voiceID, modelID string) *ElevenLabs {
	return &ElevenLabs{
		APIKey:  apiKey,
		VoiceID: voiceID,
		ModelID: modelID,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *ElevenLabs) Name() string { return "elevenlabs" }

func (e *ElevenLabs) base() string {
	if e.BaseURL != "" {
		return e.BaseURL
	}
	return elevenLabsEndpoint
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if e.APIKey == "" {
		return nil, errors.New("elevenlabs api key not set")
	}
	voiceID := strings.TrimSpace(voice)
	if voiceID == "" {
		voiceID = e.VoiceID
	}
	if voiceID == "" {
		return nil, errors.New("no elevenlabs voice configured or provided")
	}
	payload := map[string]any{
		"text":     text,
		"model_id": e.ModelID,
		"voice_settings": map[string]any{
			"stability":         0.5,
			"similarity_boost":  0.7,
			"style":             0.2,
			"use_speaker_boost": true,
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=mp3_44100_128", e.base(), voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bb, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("elevenlabs error %d: %s", resp.StatusCode, strings.TrimSpace(string(bb)))
	}
	return io.ReadAll(resp.Body)
}

// Voices returns the raw voice catalogue JSON.
func (e *ElevenLabs) Voices(ctx context.Context) ([]byte, error) {
	if e.APIKey == "" {
		return nil, ErrNoSynthesizer
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.base()+"/voices", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.APIKey)
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs voices: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bb, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("elevenlabs voices error %d: %s", resp.StatusCode, strings.TrimSpace(string(bb)))
	}
	return io.ReadAll(resp.Body)
}

// OpenAISpeech uses the OpenAI speech endpoint.
type OpenAISpeech struct {
	client *openai.Client
	model  string
	voice  string
}

func NewOpenAISpeech(client *openai.Client, model, voice string) *OpenAISpeech {
	return &OpenAISpeech{client: client, model: model, voice: voice}
}

func (o *OpenAISpeech) Name() string { return "openai" }

func (o *OpenAISpeech) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = o.voice
	}
	audio, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer audio.Close()
	return io.ReadAll(audio)
}

// Chain tries each synthesizer in order until one produces audio.
type Chain []Synthesizer

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name()
	}
	return strings.Join(names, ",")
}

func (c Chain) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if len(c) == 0 {
		return nil, ErrNoSynthesizer
	}
	var errs []error
	for _, s := range c {
		audio, err := s.Synthesize(ctx, text, voice)
		if err == nil && len(audio) > 0 {
			return audio, nil
		}
		if err == nil {
			err = errors.New("empty audio")
		}
		log.Debug().Str("component", "voice").Str("synthesizer", s.Name()).Err(err).Msg("synthesizer failed, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		// a voice id belongs to one backend; the fallback uses its own default
		voice = ""
	}
	return nil, errors.Join(errs...)
}
