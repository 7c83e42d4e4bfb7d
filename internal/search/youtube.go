package search

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/oauth2"
)

var errYouTubeNotConfigured = errors.New("youtube data api: no api key or oauth token configured")

// YouTubeAPI uses the YouTube Data API v3 search endpoint. Either APIKey or
// TokenSource must be set; with neither it fails fast so the chain moves on.
type YouTubeAPI struct {
	Client      *Client
	BaseURL     string
	APIKey      string
	TokenSource oauth2.TokenSource
}

func (y *YouTubeAPI) Name() string { return "YouTube API" }

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

func (y *YouTubeAPI) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if y.APIKey == "" && y.TokenSource == nil {
		return nil, errYouTubeNotConfigured
	}
	base := y.BaseURL
	if base == "" {
		base = "https://www.googleapis.com/youtube/v3"
	}
	if limit <= 0 {
		limit = 3
	}
	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"q":          {query},
		"maxResults": {fmt.Sprint(limit)},
	}
	header := http.Header{}
	if y.APIKey != "" {
		params.Set("key", y.APIKey)
	} else {
		tok, err := y.TokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("youtube token: %w", err)
		}
		header.Set("Authorization", tok.Type()+" "+tok.AccessToken)
	}

	var resp youtubeSearchResponse
	if err := y.Client.getJSON(ctx, base+"/search?"+params.Encode(), header, &resp); err != nil {
		return nil, err
	}
	c := newCollector(limit)
	for _, it := range resp.Items {
		if it.ID.VideoID == "" {
			continue
		}
		title := html.UnescapeString(it.Snippet.Title)
		if title == "" {
			title = "Video: " + it.ID.VideoID
		}
		c.add(title, watchURL(it.ID.VideoID))
	}
	return c.out, nil
}

var videoIDPattern = regexp.MustCompile(`watch\?v=([a-zA-Z0-9_-]{11})`)

// YouTubeScrape pulls video IDs out of the public results page.
type YouTubeScrape struct {
	Client  *Client
	BaseURL string
}

func (y *YouTubeScrape) Name() string { return "YouTube" }

func (y *YouTubeScrape) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	base := y.BaseURL
	if base == "" {
		base = "https://www.youtube.com"
	}
	body, err := y.Client.getText(ctx, base+"/results?search_query="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	return videosFromPage(body, limit), nil
}

// videosFromPage keeps IDs in first-seen order.
func videosFromPage(body string, limit int) []Result {
	c := newCollector(limit)
	for _, m := range videoIDPattern.FindAllStringSubmatch(body, -1) {
		if c.full() {
			break
		}
		c.add("Video: "+m[1], watchURL(m[1]))
	}
	return c.out
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + strings.TrimSpace(id)
}
