package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"assistify-backend/internal/app"
	"assistify-backend/internal/chatbot"
	"assistify-backend/internal/search"
	"assistify-backend/internal/store"
	"assistify-backend/internal/summarize"
	"assistify-backend/internal/types"
)

const (
	requestTimeout  = 20 * time.Second
	summarizeBudget = 3 * time.Minute
	maxAudioUpload  = 32 << 20
	maxDocument     = 32 << 20
	maxJSONBody     = 64 << 10
)

type Server struct {
	router *chi.Mux
	app    *app.App
}

func NewServer(a *app.App) *Server {
	r := chi.NewRouter()
	s := &Server{router: r, app: a}

	r.Use(s.recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{a.Config.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Session-Id"},
		ExposedHeaders:   []string{"X-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	// Chat
	s.router.Post("/api/chat", s.handleChat)
	s.router.Post("/api/chat/new", s.handleNewChat)
	s.router.Delete("/api/chat", s.handleEndChat)
	s.router.Get("/api/chat/history", s.handleHistory)
	s.router.Get("/api/chat/archive", s.handleArchive)
	s.router.Delete("/api/chat/archive", s.handleClearArchive)
	// Search
	s.router.Post("/api/search", s.handleSearch)
	s.router.Get("/api/search/summary", s.handleSearchSummary)
	s.router.Get("/api/search/web", s.handleSearchWeb)
	s.router.Get("/api/search/videos", s.handleSearchVideos)
	// Documents
	s.router.Post("/api/summarize", s.handleSummarize)
	// Voice
	s.router.Post("/api/voice", s.handleVoice)
	s.router.Post("/api/voice/toggle", s.handleVoiceToggle)
	s.router.Post("/api/tts", s.handleTTS)
	s.router.Get("/api/tts/voices", s.handleTTSVoices)
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"summarizer": s.app.Summarizer.State().String(),
		"sessions":   strconv.Itoa(len(s.app.Sessions.IDs())),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sess := s.session(w, r, req.SessionID)
	reply := s.app.Chat(sess, req.Message)
	writeJSON(w, http.StatusOK, chatResponse(sess.ID, reply, ""))
}

func (s *Server) handleNewChat(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r, "")
	sess.Reset()
	writeJSON(w, http.StatusOK, types.ChatResponse{SessionID: sess.ID, Reply: "Started a new chat."})
}

// handleEndChat forgets the caller's session entirely.
func (s *Server) handleEndChat(w http.ResponseWriter, r *http.Request) {
	sid := getSessionID(r)
	if _, ok := s.app.Sessions.Lookup(sid); !ok {
		s.writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	s.app.Sessions.Delete(sid)
	ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r, "")
	msgs := sess.History()
	out := make([]types.Message, len(msgs))
	for i, m := range msgs {
		out[i] = types.Message{Role: m.Role, Content: m.Content}
	}
	writeJSON(w, http.StatusOK, types.HistoryResponse{SessionID: sess.ID, Messages: out})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r, "")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	exchanges, err := s.app.RecentExchanges(sess.ID, limit)
	if errors.Is(err, app.ErrNoArchive) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Error().Str("component", "server").Err(err).Msg("read archive")
		s.writeError(w, http.StatusInternalServerError, "could not read archive")
		return
	}
	out := make([]types.ArchivedExchange, 0, len(exchanges))
	for _, e := range exchanges {
		out = append(out, types.ArchivedExchange{
			Intent:    e.Intent,
			UserText:  e.UserText,
			ReplyText: e.ReplyText,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, types.ArchiveResponse{SessionID: sess.ID, Exchanges: out})
}

func (s *Server) handleClearArchive(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r, "")
	err := s.app.ClearArchive(sess.ID)
	if errors.Is(err, app.ErrNoArchive) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Error().Str("component", "server").Err(err).Msg("clear archive")
		s.writeError(w, http.StatusInternalServerError, "could not clear archive")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req types.SearchRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	q := strings.TrimSpace(req.Query)
	if q == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rep := s.app.Search.Lookup(ctx, q)
	resp := types.SearchResponse{
		Query:   rep.Query,
		Summary: rep.Summary,
		Web:     types.WebOutcome{Results: nonNil(rep.Web.Results), Source: rep.Web.Source},
		Videos:  nonNil(rep.Videos),
	}
	if !rep.Web.Found() || len(rep.Videos) == 0 {
		resp.FallbackLinks = rep.Manual
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearchSummary(w http.ResponseWriter, r *http.Request) {
	q, ok := s.query(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	writeJSON(w, http.StatusOK, types.KnowledgeResponse{Query: q, Summary: s.app.Search.Summary(ctx, q)})
}

func (s *Server) handleSearchWeb(w http.ResponseWriter, r *http.Request) {
	q, ok := s.query(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	out := s.app.Search.WebSearch(ctx, q)
	resp := types.WebResponse{Query: q, WebOutcome: types.WebOutcome{Results: nonNil(out.Results), Source: out.Source}}
	if !out.Found() {
		resp.FallbackLinks = search.ManualLinks(q)[:1]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearchVideos(w http.ResponseWriter, r *http.Request) {
	q, ok := s.query(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	videos := s.app.Search.FindVideos(ctx, q)
	resp := types.VideosResponse{Query: q, Videos: nonNil(videos)}
	if len(videos) == 0 {
		resp.FallbackLinks = search.ManualLinks(q)[1:]
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSummarize accepts either a JSON body with the text or a multipart
// upload of a PDF or text file in the "file" field.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var (
		name string
		data []byte
		req  types.SummarizeRequest
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		r.Body = http.MaxBytesReader(w, r.Body, maxDocument)
		if err := r.ParseMultipartForm(maxDocument); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "document is required (field 'file')")
			return
		}
		defer file.Close()
		if data, err = io.ReadAll(file); err != nil {
			s.writeError(w, http.StatusBadRequest, "could not read document")
			return
		}
		name = header.Filename
		req.ChunkSize = formInt(r, "chunkSize")
		req.MinLength = formInt(r, "minLength")
		req.MaxLength = formInt(r, "maxLength")
		req.MaxChunks = formInt(r, "maxChunks")
	} else {
		if err := decodeJSON(w, r, maxDocument, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), summarizeBudget)
	defer cancel()
	opts := summarize.Options{
		ChunkSize: req.ChunkSize,
		MinLength: req.MinLength,
		MaxLength: req.MaxLength,
		MaxChunks: req.MaxChunks,
	}
	var (
		out string
		err error
	)
	if data != nil {
		out, err = s.app.SummarizeDocument(ctx, name, data, opts)
	} else {
		out, err = s.app.Summarize(ctx, req.Text, opts)
	}
	if errors.Is(err, summarize.ErrModelUnavailable) {
		s.writeError(w, http.StatusServiceUnavailable, "the summarization model is not available")
		return
	}
	if err != nil {
		log.Error().Str("component", "server").Err(err).Msg("summarize")
		s.writeError(w, http.StatusInternalServerError, "summarization failed")
		return
	}
	writeJSON(w, http.StatusOK, types.SummarizeResponse{Summary: out})
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUpload)
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	sess := s.session(w, r, r.FormValue("sessionId"))
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "audio file is required (field 'file')")
		return
	}
	defer file.Close()

	transcript, ok := s.app.Voice.Listen(r.Context(), file, header.Filename)
	if !ok {
		s.writeError(w, http.StatusUnprocessableEntity, "Sorry, I didn't catch that.")
		return
	}
	reply := s.app.Chat(sess, transcript)
	writeJSON(w, http.StatusOK, chatResponse(sess.ID, reply, transcript))
}

func (s *Server) handleVoiceToggle(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r, "")
	writeJSON(w, http.StatusOK, types.VoiceToggleResponse{SessionID: sess.ID, Enabled: sess.ToggleVoice()})
}

// handleTTS returns audio/mpeg for text, or 204 when the session muted voice.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var body types.TTSRequest
	if err := decodeJSON(w, r, maxJSONBody, &body); err != nil || strings.TrimSpace(body.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "invalid text body")
		return
	}
	sess := s.session(w, r, "")
	if !sess.VoiceEnabled() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	audio, err := s.app.Voice.Synthesize(r.Context(), body.Text, body.VoiceID)
	if err != nil {
		log.Warn().Str("component", "server").Err(err).Msg("tts")
		s.writeError(w, http.StatusBadGateway, "tts error")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) handleTTSVoices(w http.ResponseWriter, r *http.Request) {
	if s.app.Catalog == nil {
		s.writeError(w, http.StatusBadRequest, "elevenlabs not configured")
		return
	}
	b, err := s.app.Catalog.Voices(r.Context())
	if err != nil {
		log.Warn().Str("component", "server").Err(err).Msg("tts voices")
		s.writeError(w, http.StatusBadGateway, "voices error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) (string, bool) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter q is required")
		return "", false
	}
	return q, true
}

// decodeJSON reads at most limit bytes of JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return json.NewDecoder(r.Body).Decode(v)
}

func formInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.FormValue(key))
	return n
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, types.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func chatResponse(sid string, reply chatbot.Reply, transcript string) types.ChatResponse {
	resp := types.ChatResponse{SessionID: sid, Reply: reply.Text, Transcript: transcript}
	if reply.Intent != "" {
		resp.Intent = &types.IntentResponse{Type: string(reply.Intent), Payload: reply.Payload}
	}
	return resp
}

func nonNil(rs []search.Result) []search.Result {
	if rs == nil {
		return []search.Result{}
	}
	return rs
}

// session resolves the caller's session: explicit ID, then cookie, header and
// query parameter. A new ID is minted when none is given.
func (s *Server) session(w http.ResponseWriter, r *http.Request, explicit string) *store.Session {
	sid := strings.TrimSpace(explicit)
	if sid == "" {
		sid = getSessionID(r)
	}
	if sid == "" {
		sid = uuid.NewString()
		log.Debug().Str("component", "server").Str("session", sid).Str("path", r.URL.Path).Msg("new session")
	}
	SetSessionCookie(w, sid)
	w.Header().Set("X-Session-Id", sid)
	return s.app.Sessions.Session(sid)
}

func getSessionID(r *http.Request) string {
	if cookie, err := GetSessionCookie(r); err == nil && cookie != "" {
		return cookie
	}
	if sid := r.Header.Get("X-Session-Id"); sid != "" {
		return sid
	}
	return r.URL.Query().Get("sessionId")
}

// recoverer turns a handler panic into the usual JSON error body.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				log.Error().Str("component", "server").Interface("panic", p).Str("path", r.URL.Path).Msg("handler panicked")
				s.writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().Str("component", "http").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
