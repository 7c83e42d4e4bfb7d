package search

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"assistify-backend/internal/config"
)

// Knowledge answers a query with a short prose summary or an explanatory
// message. It never fails.
type Knowledge interface {
	Summarize(ctx context.Context, query string) string
}

// Report is everything one search produces. Manual is always populated.
type Report struct {
	Query   string
	Summary string
	Web     Outcome
	Videos  []Result
	Manual  []Result
}

// Service bundles the three independent search paths.
type Service struct {
	Knowledge Knowledge
	Web       *Aggregator
	Videos    *Aggregator

	// OnSearch, when set, is told about every web search outcome.
	OnSearch func(query, source string, results int)
}

// NewService wires the backends named in cfg. tokens may be nil; the video
// API then needs YOUTUBE_API_KEY or is skipped.
func NewService(cfg config.Config, tokens oauth2.TokenSource) (*Service, error) {
	client := NewClient(cfg.SearchTimeout, cfg.UserAgent)
	engines, err := NewEngines(cfg.SearchEngines, client)
	if err != nil {
		return nil, fmt.Errorf("search engines: %w", err)
	}
	var videos []Backend
	if cfg.YouTubeAPIKey != "" || tokens != nil {
		videos = append(videos, &YouTubeAPI{Client: client, APIKey: cfg.YouTubeAPIKey, TokenSource: tokens})
	}
	videos = append(videos, &YouTubeScrape{Client: client})

	return &Service{
		Knowledge: &Wikipedia{Client: client, Sentences: cfg.SummarySentences},
		Web:       NewAggregator(cfg.WebResults, engines...),
		Videos:    NewAggregator(cfg.VideoResults, videos...),
	}, nil
}

// YouTubeOAuthConfig is the OAuth client for read-only YouTube access.
func YouTubeOAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		Scopes: []string{"https://www.googleapis.com/auth/youtube.readonly"},
	}
}

func (s *Service) Summary(ctx context.Context, query string) string {
	return s.Knowledge.Summarize(ctx, query)
}

func (s *Service) WebSearch(ctx context.Context, query string) Outcome {
	out := s.Web.Search(ctx, query)
	if s.OnSearch != nil {
		s.OnSearch(query, out.Source, len(out.Results))
	}
	return out
}

// FindVideos returns nil when no video backend found anything.
func (s *Service) FindVideos(ctx context.Context, query string) []Result {
	return s.Videos.Search(ctx, query).Results
}

// Lookup runs the summary, web and video searches concurrently. Each path
// absorbs its own failure, so the report is always complete.
func (s *Service) Lookup(ctx context.Context, query string) Report {
	r := Report{Query: query, Manual: ManualLinks(query)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.Summary = s.Summary(gctx, query)
		return nil
	})
	g.Go(func() error {
		r.Web = s.WebSearch(gctx, query)
		return nil
	})
	g.Go(func() error {
		r.Videos = s.FindVideos(gctx, query)
		return nil
	})
	_ = g.Wait()
	log.Debug().Str("component", "search").Str("query", query).
		Str("web_source", r.Web.Source).Int("web", len(r.Web.Results)).Int("videos", len(r.Videos)).
		Msg("lookup finished")
	return r
}
