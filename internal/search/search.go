// Package search queries web, knowledge and video sources with ordered
// fallback and normalizes everything to title/url pairs.
package search

import (
	"context"

	"github.com/rs/zerolog/log"
)

type Result struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Outcome is the result of a fallback chain. The zero value means every
// backend came back empty.
type Outcome struct {
	Results []Result
	Source  string
}

func (o Outcome) Found() bool { return len(o.Results) > 0 }

// Backend is one search source. An error and an empty slice mean the same
// thing to the chain: try the next backend.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// Aggregator tries its backends in order and returns the first non-empty
// answer, tagged with the backend's name.
type Aggregator struct {
	backends []Backend
	limit    int
}

func NewAggregator(limit int, backends ...Backend) *Aggregator {
	return &Aggregator{backends: backends, limit: limit}
}

func (a *Aggregator) Search(ctx context.Context, query string) Outcome {
	for _, b := range a.backends {
		results, err := b.Search(ctx, query, a.limit)
		if err != nil {
			log.Warn().Str("component", "search").Str("backend", b.Name()).Err(err).Msg("backend failed")
			continue
		}
		if len(results) == 0 {
			log.Debug().Str("component", "search").Str("backend", b.Name()).Msg("no results, falling back")
			continue
		}
		if a.limit > 0 && len(results) > a.limit {
			results = results[:a.limit]
		}
		return Outcome{Results: results, Source: b.Name()}
	}
	return Outcome{}
}

// Names lists the backends in the order they are tried.
func (a *Aggregator) Names() []string {
	out := make([]string, len(a.backends))
	for i, b := range a.backends {
		out[i] = b.Name()
	}
	return out
}

// collector dedupes results by URL and stops at limit.
type collector struct {
	limit int
	seen  map[string]bool
	out   []Result
}

func newCollector(limit int) *collector {
	return &collector{limit: limit, seen: map[string]bool{}}
}

func (c *collector) add(title, url string) {
	if c.full() || title == "" || url == "" || c.seen[url] {
		return
	}
	c.seen[url] = true
	c.out = append(c.out, Result{Title: title, URL: url})
}

func (c *collector) full() bool {
	return c.limit > 0 && len(c.out) >= c.limit
}
