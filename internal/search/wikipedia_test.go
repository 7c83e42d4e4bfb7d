package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wikiServer answers the three MediaWiki calls Lookup makes. An empty title
// means the search finds nothing.
func wikiServer(t *testing.T, title, pageJSON, linksJSON string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/w/api.php", r.URL.Path)
		assert.Equal(t, "2", q.Get("formatversion"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case q.Get("list") == "search":
			if title == "" {
				_, _ = w.Write([]byte(`{"query":{"search":[]}}`))
				return
			}
			_, _ = w.Write([]byte(`{"query":{"search":[{"title":"` + title + `"}]}}`))
		case q.Get("prop") == "extracts|pageprops":
			assert.Equal(t, title, q.Get("titles"))
			_, _ = w.Write([]byte(pageJSON))
		case q.Get("prop") == "links":
			_, _ = w.Write([]byte(linksJSON))
		default:
			http.Error(w, "unexpected", http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWikipedia_Article(t *testing.T) {
	page := `{"query":{"pages":[{"title":"Go (programming language)","extract":"Go is a language. It was designed at Google. It is statically typed. It has goroutines."}]}}`
	srv := wikiServer(t, "Go (programming language)", page, "")

	w := &Wikipedia{Client: testClient(), BaseURL: srv.URL, Sentences: 3}
	s, err := w.Lookup(context.Background(), "golang")
	require.NoError(t, err)
	assert.Equal(t, SummaryArticle, s.Kind)
	assert.Equal(t, "Go is a language. It was designed at Google. It is statically typed.", s.Text)
	assert.Equal(t, s.Text, w.Summarize(context.Background(), "golang"))
}

func TestWikipedia_Ambiguous(t *testing.T) {
	page := `{"query":{"pages":[{"title":"Mercury","extract":"Mercury may refer to:","pageprops":{"disambiguation":""}}]}}`
	links := `{"query":{"pages":[{"title":"Mercury","links":[{"title":"Mercury (planet)"},{"title":"Mercury (element)"},{"title":"Mercury (mythology)"},{"title":"Freddie Mercury"},{"title":"Mercury Records"},{"title":"Mercury Prize"}]}]}}`
	srv := wikiServer(t, "Mercury", page, links)

	w := &Wikipedia{Client: testClient(), BaseURL: srv.URL, Sentences: 3}
	s, err := w.Lookup(context.Background(), "mercury")
	require.NoError(t, err)
	assert.Equal(t, SummaryAmbiguous, s.Kind)
	assert.Len(t, s.Options, 5)

	msg := w.Summarize(context.Background(), "mercury")
	assert.Contains(t, msg, "Wikipedia ambiguous")
	assert.Contains(t, msg, "\n- Mercury (planet)")
	assert.NotContains(t, msg, "Mercury Prize")
}

func TestWikipedia_NotFound(t *testing.T) {
	srv := wikiServer(t, "", "", "")
	w := &Wikipedia{Client: testClient(), BaseURL: srv.URL, Sentences: 3}

	s, err := w.Lookup(context.Background(), "qwzxv")
	require.NoError(t, err)
	assert.Equal(t, SummaryNotFound, s.Kind)
	assert.Equal(t, msgNotFound, w.Summarize(context.Background(), "qwzxv"))
}

func TestWikipedia_MissingPage(t *testing.T) {
	srv := wikiServer(t, "Gone", `{"query":{"pages":[{"title":"Gone","missing":true}]}}`, "")
	w := &Wikipedia{Client: testClient(), BaseURL: srv.URL}

	s, err := w.Lookup(context.Background(), "gone")
	require.NoError(t, err)
	assert.Equal(t, SummaryNotFound, s.Kind)
}

func TestWikipedia_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w := &Wikipedia{Client: testClient(), BaseURL: srv.URL}
	_, err := w.Lookup(context.Background(), "go")
	assert.Error(t, err)
	assert.Equal(t, msgUnavailable, w.Summarize(context.Background(), "go"))
}

func TestFirstSentences(t *testing.T) {
	text := "Version 1.2 shipped. Was it good? Yes! More text."
	assert.Equal(t, "Version 1.2 shipped.", firstSentences(text, 1))
	assert.Equal(t, "Version 1.2 shipped. Was it good? Yes!", firstSentences(text, 3))
	assert.Equal(t, text, firstSentences(text, 10))
	assert.Equal(t, text, firstSentences(text, 0))
	assert.Equal(t, "", firstSentences("   ", 2))
}
