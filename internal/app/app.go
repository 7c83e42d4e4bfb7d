// Package app assembles the assistant from configuration. The HTTP server and
// the terminal chat both drive the same App.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/oauth2"

	"assistify-backend/internal/chatbot"
	"assistify-backend/internal/config"
	"assistify-backend/internal/db"
	"assistify-backend/internal/search"
	"assistify-backend/internal/store"
	"assistify-backend/internal/summarize"
	"assistify-backend/internal/voice"
)

// Archive keeps a write-mostly transcript outside the process.
type Archive interface {
	SaveExchange(sessionID, intent, userText, replyText string) error
	SaveSearch(query, source string, resultCount int) error
	RecentExchanges(sessionID string, limit int) ([]store.Exchange, error)
	DeleteSession(sessionID string) error
}

// VoiceCatalog lists the voices a synthesizer offers, as raw JSON.
type VoiceCatalog interface {
	Voices(ctx context.Context) ([]byte, error)
}

type App struct {
	Config     config.Config
	Sessions   *store.MemoryStore
	Bot        *chatbot.Bot
	Search     *search.Service
	Summarizer *summarize.Summarizer
	Voice      *voice.Manager
	Catalog    VoiceCatalog
	Archive    Archive

	database *db.DB
}

// New builds every component cfg enables. Only a bad phrasebook, an unknown
// search engine or an unreachable database are fatal.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	book, err := chatbot.LoadPhrasebook(cfg.PhrasebookFile)
	if err != nil {
		return nil, fmt.Errorf("load phrasebook: %w", err)
	}

	svc, err := search.NewService(cfg, youtubeTokens(ctx, cfg))
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Sessions:   store.NewMemoryStore(cfg.HistorySize),
		Bot:        chatbot.New(book),
		Search:     svc,
		Summarizer: summarize.New(summarize.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.Model)),
	}
	a.Sessions.SetVoiceDefault(cfg.VoiceEnabled)
	a.Voice, a.Catalog = buildVoice(cfg)

	if cfg.DatabaseURL != "" {
		database, err := db.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.RunMigrations(db.Migrations()); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Str("component", "app").Msg("transcript archive enabled")
		a.database = database
		a.Archive = store.NewDatabaseStore(database)
	} else {
		log.Debug().Str("component", "app").Msg("DB_URL not set; transcripts are not archived")
	}
	a.wireSearchLog()
	return a, nil
}

func youtubeTokens(ctx context.Context, cfg config.Config) oauth2.TokenSource {
	if cfg.YouTubeClientID == "" {
		return nil
	}
	oc := search.YouTubeOAuthConfig(cfg.YouTubeClientID, cfg.YouTubeClientSecret)
	ts, err := store.NewFileTokenStore(cfg.YouTubeTokenFile).TokenSource(ctx, oc)
	if err != nil {
		log.Warn().Str("component", "app").Err(err).Msg("youtube token unreadable; using page scraping")
		return nil
	}
	return ts
}

func buildVoice(cfg config.Config) (*voice.Manager, VoiceCatalog) {
	var (
		stt     voice.Transcriber
		chain   voice.Chain
		tts     voice.Synthesizer
		player  voice.Player
		catalog VoiceCatalog
	)
	if cfg.ElevenAPIKey != "" {
		eleven := voice.NewElevenLabs(cfg.ElevenAPIKey, cfg.ElevenVoiceID, cfg.ElevenModel)
		chain = append(chain, eleven)
		catalog = eleven
	}
	if cfg.OpenAIAPIKey != "" {
		client := openai.NewClient(cfg.OpenAIAPIKey)
		stt = voice.NewWhisper(client, cfg.STTModel)
		chain = append(chain, voice.NewOpenAISpeech(client, cfg.TTSModel, cfg.TTSVoice))
	}
	if len(chain) > 0 {
		tts = chain
	}
	if len(cfg.AudioPlayer) > 0 {
		player = voice.CommandPlayer{Args: cfg.AudioPlayer}
	}
	return voice.NewManager(stt, tts, player, cfg.VoiceTimeout), catalog
}

func (a *App) wireSearchLog() {
	if a.Archive == nil || a.Search == nil {
		return
	}
	archive := a.Archive
	a.Search.OnSearch = func(query, source string, n int) {
		if err := archive.SaveSearch(query, source, n); err != nil {
			log.Warn().Str("component", "app").Err(err).Msg("archive search")
		}
	}
}

// Chat answers one message and archives the exchange when an archive is set.
func (a *App) Chat(sess *store.Session, text string) chatbot.Reply {
	reply := a.Bot.Respond(sess, text)
	if a.Archive != nil {
		if err := a.Archive.SaveExchange(sess.ID, string(reply.Intent), text, reply.Text); err != nil {
			log.Warn().Str("component", "app").Err(err).Msg("archive exchange")
		}
	}
	return reply
}

// Summarize runs the document summarizer with the configured defaults for
// any option left zero.
func (a *App) Summarize(ctx context.Context, text string, opts summarize.Options) (string, error) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = a.Config.ChunkSize
	}
	if opts.MinLength == 0 {
		opts.MinLength = a.Config.MinLength
	}
	if opts.MaxLength == 0 {
		opts.MaxLength = a.Config.MaxLength
	}
	if opts.MaxChunks == 0 {
		opts.MaxChunks = a.Config.MaxChunks
	}
	return a.Summarizer.Summarize(ctx, text, opts)
}

// SummarizeDocument extracts the text of an uploaded or opened document and
// summarizes it. An unreadable document is treated as blank, which yields
// summarize.BlankTextMessage.
func (a *App) SummarizeDocument(ctx context.Context, name string, data []byte, opts summarize.Options) (string, error) {
	text, err := summarize.ExtractText(name, data)
	if err != nil {
		log.Warn().Str("component", "app").Str("document", name).Err(err).Msg("text extraction failed")
		text = ""
	}
	return a.Summarize(ctx, text, opts)
}

// Close waits for background speech and releases the database.
func (a *App) Close() error {
	if a.Voice != nil {
		a.Voice.Wait()
	}
	if a.database != nil {
		return a.database.Close()
	}
	return nil
}

// ErrNoArchive is returned by archive reads when DB_URL is not configured.
var ErrNoArchive = errors.New("transcript archive is not configured")

func (a *App) RecentExchanges(sessionID string, limit int) ([]store.Exchange, error) {
	if a.Archive == nil {
		return nil, ErrNoArchive
	}
	return a.Archive.RecentExchanges(sessionID, limit)
}

// ClearArchive drops the archived transcript of a session.
func (a *App) ClearArchive(sessionID string) error {
	if a.Archive == nil {
		return ErrNoArchive
	}
	return a.Archive.DeleteSession(sessionID)
}
