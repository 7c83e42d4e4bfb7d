package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistify-backend/internal/app"
	"assistify-backend/internal/config"
	"assistify-backend/internal/search"
	"assistify-backend/internal/store"
	"assistify-backend/internal/summarize"
	"assistify-backend/internal/types"
	"assistify-backend/internal/voice"
)

type stubBackend struct {
	name    string
	results []search.Result
}

func (b stubBackend) Name() string { return b.name }

func (b stubBackend) Search(context.Context, string, int) ([]search.Result, error) {
	return b.results, nil
}

type stubKnowledge string

func (k stubKnowledge) Summarize(context.Context, string) string { return string(k) }

type stubModel struct{ loadErr error }

func (m stubModel) Load(context.Context) error { return m.loadErr }

func (m stubModel) Summarize(context.Context, string, int, int) (string, error) {
	return "short", nil
}

type stubSTT struct{ text string }

func (s stubSTT) Transcribe(context.Context, io.Reader, string) (string, error) {
	return s.text, nil
}

type stubTTS struct{}

func (stubTTS) Name() string { return "stub" }

func (stubTTS) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	return []byte("mp3:" + text), nil
}

type stubCatalog struct{}

func (stubCatalog) Voices(context.Context) ([]byte, error) {
	return []byte(`{"voices":[]}`), nil
}

type memArchive struct{ exchanges []store.Exchange }

func (m *memArchive) SaveExchange(sessionID, intent, userText, replyText string) error {
	m.exchanges = append(m.exchanges, store.Exchange{
		SessionID: sessionID, Intent: intent, UserText: userText, ReplyText: replyText,
		CreatedAt: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC),
	})
	return nil
}

func (m *memArchive) SaveSearch(string, string, int) error { return nil }

func (m *memArchive) RecentExchanges(sessionID string, _ int) ([]store.Exchange, error) {
	var out []store.Exchange
	for _, e := range m.exchanges {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memArchive) DeleteSession(string) error {
	m.exchanges = nil
	return nil
}

func testApp(t *testing.T) *app.App {
	t.Helper()
	a, err := app.New(context.Background(), config.Config{
		AllowedOrigin: "*",
		HistorySize:   40,
		VoiceEnabled:  true,
		VoiceTimeout:  time.Second,
		SearchEngines: []string{"duckduckgo"},
		SearchTimeout: time.Second,
		WebResults:    5,
		VideoResults:  3,
	})
	require.NoError(t, err)
	a.Search = &search.Service{
		Knowledge: stubKnowledge("Go is a language."),
		Web: search.NewAggregator(5, stubBackend{name: "Bing", results: []search.Result{
			{Title: "The Go Programming Language", URL: "https://go.dev"},
		}}),
		Videos: search.NewAggregator(3, stubBackend{name: "YouTube"}),
	}
	a.Summarizer = summarize.New(stubModel{})
	a.Voice = voice.NewManager(stubSTT{text: "hello"}, stubTTS{}, nil, time.Second)
	return a
}

func do(t *testing.T, h http.Handler, method, path string, body any, sid string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if sid != "" {
		req.Header.Set("X-Session-Id", sid)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	h := NewServer(testApp(t)).Router()
	rec := do(t, h, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "uninitialized", body["summarizer"])
}

func TestChat_AssignsSessionAndRemembers(t *testing.T) {
	h := NewServer(testApp(t)).Router()

	rec := do(t, h, http.MethodPost, "/api/chat", types.ChatRequest{Message: "my name is Ada"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[types.ChatResponse](t, rec)
	require.NotEmpty(t, first.SessionID)
	assert.Equal(t, first.SessionID, rec.Header().Get("X-Session-Id"))
	require.NotNil(t, first.Intent)
	assert.Equal(t, "remember_name", first.Intent.Type)

	rec = do(t, h, http.MethodPost, "/api/chat", types.ChatRequest{Message: "what is my name"}, first.SessionID)
	second := decode[types.ChatResponse](t, rec)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Contains(t, strings.ToLower(second.Reply), "ada")
}

func TestChat_BodySessionWins(t *testing.T) {
	h := NewServer(testApp(t)).Router()
	rec := do(t, h, http.MethodPost, "/api/chat", types.ChatRequest{SessionID: "body", Message: "hello"}, "header")
	assert.Equal(t, "body", decode[types.ChatResponse](t, rec).SessionID)
}

func TestChat_BadRequests(t *testing.T) {
	h := NewServer(testApp(t)).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", decode[types.ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodPost, "/api/chat", types.ChatRequest{Message: "   "}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryAndNewChat(t *testing.T) {
	h := NewServer(testApp(t)).Router()
	do(t, h, http.MethodPost, "/api/chat", types.ChatRequest{Message: "hello"}, "s1")

	hist := decode[types.HistoryResponse](t, do(t, h, http.MethodGet, "/api/chat/history", nil, "s1"))
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, types.Message{Role: "user", Content: "hello"}, hist.Messages[0])
	assert.Equal(t, "assistant", hist.Messages[1].Role)

	rec := do(t, h, http.MethodPost, "/api/chat/new", nil, "s1")
	assert.Equal(t, http.StatusOK, rec.Code)
	hist = decode[types.HistoryResponse](t, do(t, h, http.MethodGet, "/api/chat/history", nil, "s1"))
	assert.Empty(t, hist.Messages)
}

func TestArchive(t *testing.T) {
	a := testApp(t)
	h := NewServer(a).Router()

	rec := do(t, h, http.MethodGet, "/api/chat/archive", nil, "s1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	a.Archive = &memArchive{}
	do(t, h, http.MethodPost, "/api/chat", types.ChatRequest{Message: "hello"}, "s1")
	got := decode[types.ArchiveResponse](t, do(t, h, http.MethodGet, "/api/chat/archive", nil, "s1"))
	require.Len(t, got.Exchanges, 1)
	assert.Equal(t, types.ArchivedExchange{
		Intent:    "greeting",
		UserText:  "hello",
		ReplyText: "Hello! How are you today?",
		CreatedAt: "2024-03-09T12:00:00Z",
	}, got.Exchanges[0])

	rec = do(t, h, http.MethodDelete, "/api/chat/archive", nil, "s1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	got = decode[types.ArchiveResponse](t, do(t, h, http.MethodGet, "/api/chat/archive", nil, "s1"))
	assert.Empty(t, got.Exchanges)
}

func TestSearch(t *testing.T) {
	h := NewServer(testApp(t)).Router()

	rec := do(t, h, http.MethodPost, "/api/search", types.SearchRequest{Query: "golang"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[types.SearchResponse](t, rec)
	assert.Equal(t, "golang", resp.Query)
	assert.Equal(t, "Go is a language.", resp.Summary)
	assert.Equal(t, "Bing", resp.Web.Source)
	require.Len(t, resp.Web.Results, 1)
	assert.Empty(t, resp.Videos)
	assert.Equal(t, search.ManualLinks("golang"), resp.FallbackLinks)

	rec = do(t, h, http.MethodPost, "/api/search", types.SearchRequest{Query: " "}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchParts(t *testing.T) {
	h := NewServer(testApp(t)).Router()

	k := decode[types.KnowledgeResponse](t, do(t, h, http.MethodGet, "/api/search/summary?q=go", nil, ""))
	assert.Equal(t, "Go is a language.", k.Summary)

	web := decode[types.WebResponse](t, do(t, h, http.MethodGet, "/api/search/web?q=go", nil, ""))
	assert.Equal(t, "Bing", web.Source)
	assert.Empty(t, web.FallbackLinks)

	vids := decode[types.VideosResponse](t, do(t, h, http.MethodGet, "/api/search/videos?q=go", nil, ""))
	assert.Empty(t, vids.Videos)
	require.Len(t, vids.FallbackLinks, 1)
	assert.Equal(t, search.YouTubeSearchURL("go"), vids.FallbackLinks[0].URL)

	rec := do(t, h, http.MethodGet, "/api/search/web", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummarize(t *testing.T) {
	a := testApp(t)
	h := NewServer(a).Router()

	text := strings.Repeat("Go makes it easy to build simple and efficient software. ", 3)
	rec := do(t, h, http.MethodPost, "/api/summarize", types.SummarizeRequest{Text: text}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Part 1:\nshort", decode[types.SummarizeResponse](t, rec).Summary)

	a.Summarizer = summarize.New(stubModel{loadErr: errors.New("no weights")})
	rec = do(t, h, http.MethodPost, "/api/summarize", types.SummarizeRequest{Text: text}, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestVoice(t *testing.T) {
	h := NewServer(testApp(t)).Router()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "clip.webm")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("audio"))
	require.NoError(t, mw.WriteField("sessionId", "v1"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/voice", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[types.ChatResponse](t, rec)
	assert.Equal(t, "v1", resp.SessionID)
	assert.Equal(t, "hello", resp.Transcript)
	assert.Equal(t, "Hello! How are you today?", resp.Reply)
}

func TestVoice_MissingFile(t *testing.T) {
	h := NewServer(testApp(t)).Router()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/voice", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTTSRespectsToggle(t *testing.T) {
	h := NewServer(testApp(t)).Router()

	rec := do(t, h, http.MethodPost, "/api/tts", types.TTSRequest{Text: "hi"}, "t1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "mp3:hi", rec.Body.String())

	toggled := decode[types.VoiceToggleResponse](t, do(t, h, http.MethodPost, "/api/voice/toggle", nil, "t1"))
	assert.False(t, toggled.Enabled)

	rec = do(t, h, http.MethodPost, "/api/tts", types.TTSRequest{Text: "hi"}, "t1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/tts", types.TTSRequest{}, "t1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTTSVoices(t *testing.T) {
	a := testApp(t)
	h := NewServer(a).Router()

	rec := do(t, h, http.MethodGet, "/api/tts/voices", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	a.Catalog = stubCatalog{}
	rec = do(t, h, http.MethodGet, "/api/tts/voices", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"voices":[]}`, rec.Body.String())
}

func TestSessionCookie(t *testing.T) {
	h := NewServer(testApp(t)).Router()
	rec := do(t, h, http.MethodPost, "/api/chat", types.ChatRequest{Message: "hello"}, "")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	hist := decode[types.HistoryResponse](t, rec)
	assert.Equal(t, cookies[0].Value, hist.SessionID)
	assert.Len(t, hist.Messages, 2)
}

func TestRecoverer(t *testing.T) {
	s := NewServer(testApp(t))
	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[types.ErrorResponse](t, rec).Error, "Something went wrong")
}

func TestEndChat(t *testing.T) {
	a := testApp(t)
	h := NewServer(a).Router()

	rec := do(t, h, http.MethodDelete, "/api/chat", nil, "gone")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	do(t, h, http.MethodPost, "/api/chat", types.ChatRequest{Message: "hello"}, "gone")
	rec = do(t, h, http.MethodDelete, "/api/chat", nil, "gone")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := a.Sessions.Lookup("gone")
	assert.False(t, ok)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestChat_DeeplyNestedArithmetic(t *testing.T) {
	h := NewServer(testApp(t)).Router()
	const n = 30000
	msg := strings.Repeat("(", n) + "1" + strings.Repeat(")", n)

	rec := do(t, h, http.MethodPost, "/api/chat", types.ChatRequest{Message: msg}, "calc")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[types.ChatResponse](t, rec)
	require.NotNil(t, resp.Intent)
	assert.Equal(t, "calculate", resp.Intent.Type)
	assert.Equal(t, "Sorry, I couldn't calculate that.", resp.Reply)
}

func TestChat_BodyTooLarge(t *testing.T) {
	h := NewServer(testApp(t)).Router()
	rec := do(t, h, http.MethodPost, "/api/chat", types.ChatRequest{Message: strings.Repeat("a ", maxJSONBody)}, "big")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummarize_Upload(t *testing.T) {
	h := NewServer(testApp(t)).Router()

	upload := func(name string, content []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, _ = fw.Write(content)
		require.NoError(t, mw.WriteField("maxChunks", "2"))
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/summarize", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	text := strings.Repeat("Go makes it easy to build simple and efficient software. ", 3)
	rec := upload("notes.txt", []byte(text))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Part 1:\nshort", decode[types.SummarizeResponse](t, rec).Summary)

	rec = upload("scan.pdf", []byte("not a pdf"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, summarize.BlankTextMessage, decode[types.SummarizeResponse](t, rec).Summary)
}
