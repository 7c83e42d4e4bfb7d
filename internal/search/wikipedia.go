package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
)

type SummaryKind int

const (
	SummaryNotFound SummaryKind = iota
	SummaryArticle
	SummaryAmbiguous
)

// Summary is the typed result of a knowledge lookup. Options is set only for
// ambiguous topics.
type Summary struct {
	Kind    SummaryKind
	Title   string
	Text    string
	Options []string
}

const (
	maxAmbiguousOptions = 5

	msgAmbiguous   = "❓ Wikipedia ambiguous. Try being more specific. Some options:\n- "
	msgNotFound    = "❌ Wikipedia: No page found."
	msgUnavailable = "❌ Wikipedia is unavailable right now. Please try again later."
)

// Wikipedia answers knowledge queries through the MediaWiki action API.
type Wikipedia struct {
	Client    *Client
	BaseURL   string
	Sentences int
}

func (w *Wikipedia) endpoint(params url.Values) string {
	base := w.BaseURL
	if base == "" {
		base = "https://en.wikipedia.org"
	}
	params.Set("format", "json")
	params.Set("formatversion", "2")
	return base + "/w/api.php?" + params.Encode()
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikiPage struct {
	Title     string         `json:"title"`
	Missing   bool           `json:"missing"`
	Extract   string         `json:"extract"`
	PageProps map[string]any `json:"pageprops"`
	Links     []struct {
		Title string `json:"title"`
	} `json:"links"`
}

type wikiPagesResponse struct {
	Query struct {
		Pages []wikiPage `json:"pages"`
	} `json:"query"`
}

// Lookup resolves query to its best matching article. Transport and decoding
// faults are returned as errors; a topic with no page is SummaryNotFound.
func (w *Wikipedia) Lookup(ctx context.Context, query string) (Summary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Summary{Kind: SummaryNotFound}, nil
	}

	var found wikiSearchResponse
	err := w.Client.getJSON(ctx, w.endpoint(url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {"1"},
	}), nil, &found)
	if err != nil {
		return Summary{}, fmt.Errorf("wikipedia search: %w", err)
	}
	if len(found.Query.Search) == 0 {
		return Summary{Kind: SummaryNotFound}, nil
	}
	title := found.Query.Search[0].Title

	page, err := w.page(ctx, url.Values{
		"action":      {"query"},
		"prop":        {"extracts|pageprops"},
		"exintro":     {"1"},
		"explaintext": {"1"},
		"redirects":   {"1"},
		"titles":      {title},
	})
	if err != nil {
		return Summary{}, err
	}
	if page == nil || page.Missing {
		return Summary{Kind: SummaryNotFound}, nil
	}

	if _, ok := page.PageProps["disambiguation"]; ok {
		links, err := w.page(ctx, url.Values{
			"action":      {"query"},
			"prop":        {"links"},
			"plnamespace": {"0"},
			"pllimit":     {fmt.Sprint(maxAmbiguousOptions)},
			"titles":      {page.Title},
		})
		if err != nil {
			return Summary{}, err
		}
		s := Summary{Kind: SummaryAmbiguous, Title: page.Title}
		if links != nil {
			for _, l := range links.Links {
				if len(s.Options) == maxAmbiguousOptions {
					break
				}
				s.Options = append(s.Options, l.Title)
			}
		}
		return s, nil
	}

	text := firstSentences(page.Extract, w.Sentences)
	if text == "" {
		return Summary{Kind: SummaryNotFound}, nil
	}
	return Summary{Kind: SummaryArticle, Title: page.Title, Text: text}, nil
}

func (w *Wikipedia) page(ctx context.Context, params url.Values) (*wikiPage, error) {
	var resp wikiPagesResponse
	if err := w.Client.getJSON(ctx, w.endpoint(params), nil, &resp); err != nil {
		return nil, fmt.Errorf("wikipedia %s: %w", params.Get("prop"), err)
	}
	if len(resp.Query.Pages) == 0 {
		return nil, nil
	}
	return &resp.Query.Pages[0], nil
}

// Summarize renders Lookup as a chat message. It never fails.
func (w *Wikipedia) Summarize(ctx context.Context, query string) string {
	s, err := w.Lookup(ctx, query)
	if err != nil {
		log.Warn().Str("component", "wikipedia").Err(err).Str("query", query).Msg("lookup failed")
		return msgUnavailable
	}
	return renderSummary(s)
}

func renderSummary(s Summary) string {
	switch s.Kind {
	case SummaryArticle:
		return s.Text
	case SummaryAmbiguous:
		if len(s.Options) == 0 {
			return strings.TrimSuffix(msgAmbiguous, ":\n- ") + "."
		}
		return msgAmbiguous + strings.Join(s.Options, "\n- ")
	default:
		return msgNotFound
	}
}

// firstSentences keeps the first n sentences of text. A sentence ends at '.',
// '!' or '?' followed by whitespace or the end of the text. n <= 0 keeps all.
func firstSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 || text == "" {
		return text
	}
	runes := []rune(text)
	count := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		count++
		if count == n {
			return string(runes[:i+1])
		}
	}
	return text
}
