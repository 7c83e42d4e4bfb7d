// Package summarize condenses long documents chunk by chunk with a language
// model.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrModelUnavailable is returned when the model could not be loaded.
var ErrModelUnavailable = errors.New("summarization model unavailable")

const (
	// BlankTextMessage is returned for input with no text in it.
	BlankTextMessage = "❌ Could not extract text from the document."
	TruncatedMarker  = "(Summary truncated... document is very long)"

	minChunkChars = 60
)

type Options struct {
	ChunkSize int
	MinLength int
	MaxLength int
	MaxChunks int
}

func DefaultOptions() Options {
	return Options{ChunkSize: 1000, MinLength: 40, MaxLength: 130, MaxChunks: 5}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.MinLength <= 0 {
		o.MinLength = d.MinLength
	}
	if o.MaxLength <= 0 {
		o.MaxLength = d.MaxLength
	}
	if o.MaxLength < o.MinLength {
		o.MaxLength = o.MinLength
	}
	if o.MaxChunks <= 0 {
		o.MaxChunks = d.MaxChunks
	}
	return o
}

// Model is the summarization backend. Load is called once before the first
// Summarize.
type Model interface {
	Load(ctx context.Context) error
	Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error)
}

type State int

const (
	StateUninitialized State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// Summarizer owns a Model and loads it on first use. A failed load is sticky:
// later calls report ErrModelUnavailable without retrying.
type Summarizer struct {
	model Model

	mu      sync.Mutex
	state   State
	loadErr error
}

func New(model Model) *Summarizer {
	return &Summarizer{model: model}
}

func (s *Summarizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Summarizer) ensureLoaded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateReady:
		return nil
	case StateFailed:
		return fmt.Errorf("%w: %v", ErrModelUnavailable, s.loadErr)
	}
	if err := s.model.Load(ctx); err != nil {
		s.state = StateFailed
		s.loadErr = err
		log.Error().Str("component", "summarize").Err(err).Msg("model failed to load")
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	s.state = StateReady
	return nil
}

// Summarize splits text into ChunkSize-character chunks and summarizes each,
// labelling them "Part N:". Chunks past MaxChunks are dropped and
// TruncatedMarker is appended. Chunks that fail are logged and skipped.
func (s *Summarizer) Summarize(ctx context.Context, text string, opts Options) (string, error) {
	if strings.TrimSpace(text) == "" {
		return BlankTextMessage, nil
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return "", err
	}
	opts = opts.withDefaults()

	var sb strings.Builder
	for idx, chunk := range chunks(text, opts.ChunkSize) {
		if idx >= opts.MaxChunks {
			sb.WriteString(TruncatedMarker)
			sb.WriteString("\n")
			break
		}
		chunk = strings.Join(strings.Fields(chunk), " ")
		if len([]rune(chunk)) < minChunkChars {
			continue
		}
		out, err := s.model.Summarize(ctx, chunk, opts.MinLength, opts.MaxLength)
		if err != nil {
			log.Warn().Str("component", "summarize").Int("chunk", idx).Err(err).Msg("chunk failed")
			continue
		}
		fmt.Fprintf(&sb, "Part %d:\n%s\n\n", idx+1, strings.TrimSpace(out))
	}
	return strings.TrimSpace(sb.String()), nil
}

// chunks cuts text into pieces of size characters.
func chunks(text string, size int) []string {
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}
