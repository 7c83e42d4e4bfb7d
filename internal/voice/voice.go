// Package voice wires speech-to-text and text-to-speech around the chat.
// Listening is exclusive; speaking is fire-and-forget.
package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// Transcriber turns a recorded utterance into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

type Whisper struct {
	client *openai.Client
	model  string
}

func NewWhisper(client *openai.Client, model string) *Whisper {
	return &Whisper{client: client, model: model}
}

func (w *Whisper) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if filename == "" {
		filename = "speech.webm"
	}
	tr, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		Reader:   audio,
		FilePath: filename,
		Language: "en",
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return strings.TrimSpace(tr.Text), nil
}

// Player plays MP3 audio locally.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// CommandPlayer pipes audio into an external program's stdin, e.g.
// "mpg123 -q -" or "ffplay -nodisp -autoexit -loglevel quiet -".
type CommandPlayer struct {
	Args []string
}

func (p CommandPlayer) Play(ctx context.Context, audio []byte) error {
	if len(p.Args) == 0 {
		return errors.New("no audio player configured")
	}
	cmd := exec.CommandContext(ctx, p.Args[0], p.Args[1:]...)
	cmd.Stdin = bytes.NewReader(audio)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", p.Args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Preferences reports whether replies should be spoken. *store.Session
// satisfies it.
type Preferences interface {
	VoiceEnabled() bool
}

type Manager struct {
	stt     Transcriber
	tts     Synthesizer
	player  Player
	timeout time.Duration

	listening atomic.Bool
	wg        sync.WaitGroup
}

// NewManager accepts nil for any collaborator; the matching operation then
// becomes a no-op that reports absence.
func NewManager(stt Transcriber, tts Synthesizer, player Player, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 7 * time.Second
	}
	return &Manager{stt: stt, tts: tts, player: player, timeout: timeout}
}

// Listening reports whether a capture is in progress.
func (m *Manager) Listening() bool { return m.listening.Load() }

// Listen transcribes one utterance. It returns false when another capture is
// in progress, when nothing was understood, or on any failure; callers cannot
// tell these apart.
func (m *Manager) Listen(ctx context.Context, audio io.Reader, filename string) (string, bool) {
	if m.stt == nil {
		return "", false
	}
	if !m.listening.CompareAndSwap(false, true) {
		log.Debug().Str("component", "voice").Msg("listen rejected: already listening")
		return "", false
	}
	defer m.listening.Store(false)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	text, err := m.stt.Transcribe(ctx, audio, filename)
	if err != nil {
		log.Warn().Str("component", "voice").Err(err).Msg("speech recognition failed")
		return "", false
	}
	if text == "" {
		log.Debug().Str("component", "voice").Msg("no speech detected")
		return "", false
	}
	return text, true
}

// Synthesize renders text with the configured synthesizer chain.
func (m *Manager) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if m.tts == nil {
		return nil, ErrNoSynthesizer
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.tts.Synthesize(ctx, text, voice)
}

// Speak says text in the background when prefs allow it. Failures are logged.
func (m *Manager) Speak(prefs Preferences, text string) {
	text = strings.TrimSpace(text)
	if text == "" || m.tts == nil || m.player == nil {
		return
	}
	if prefs != nil && !prefs.VoiceEnabled() {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		audio, err := m.Synthesize(context.Background(), text, "")
		if err != nil {
			log.Warn().Str("component", "voice").Err(err).Msg("text-to-speech failed")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := m.player.Play(ctx, audio); err != nil {
			log.Warn().Str("component", "voice").Err(err).Msg("playback failed")
		}
	}()
}

// Wait blocks until background speech has finished.
func (m *Manager) Wait() { m.wg.Wait() }
