package search

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DuckDuckGo scrapes the JavaScript-free results page.
type DuckDuckGo struct {
	Client  *Client
	BaseURL string
}

func (d *DuckDuckGo) Name() string { return "DuckDuckGo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	base := d.BaseURL
	if base == "" {
		base = "https://html.duckduckgo.com"
	}
	doc, err := d.Client.getDocument(ctx, base+"/html/?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	c := newCollector(limit)
	doc.Find("a.result__a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		c.add(strings.TrimSpace(s.Text()), decodeDuckDuckGoURL(href))
		return !c.full()
	})
	return c.out, nil
}

// decodeDuckDuckGoURL unwraps "//duckduckgo.com/l/?uddg=<escaped target>".
func decodeDuckDuckGoURL(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

// Bing scrapes the regular results page.
type Bing struct {
	Client  *Client
	BaseURL string
}

func (b *Bing) Name() string { return "Bing" }

func (b *Bing) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	base := b.BaseURL
	if base == "" {
		base = "https://www.bing.com"
	}
	doc, err := b.Client.getDocument(ctx, base+"/search?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	c := newCollector(limit)
	doc.Find("li.b_algo").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		h2 := item.Find("h2").First()
		if h2.Length() == 0 {
			return true
		}
		link := h2.Find("a").First()
		if link.Length() == 0 {
			link = item.Find("a").First()
		}
		href, _ := link.Attr("href")
		c.add(strings.TrimSpace(h2.Text()), decodeBingURL(href))
		return !c.full()
	})
	return c.out, nil
}

// decodeBingURL unwraps Bing click-tracking links, which carry the target as
// "u=a1" followed by unpadded URL-safe base64. Anything that does not decode
// to an http(s) URL is returned unchanged.
func decodeBingURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	enc := u.Query().Get("u")
	if !strings.HasPrefix(enc, "a1") {
		return href
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(enc[2:], "="))
	if err != nil {
		return href
	}
	target := string(raw)
	if !strings.HasPrefix(target, "http") {
		return href
	}
	return target
}

// Brave scrapes search.brave.com.
type Brave struct {
	Client  *Client
	BaseURL string
}

func (b *Brave) Name() string { return "Brave" }

func (b *Brave) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	base := b.BaseURL
	if base == "" {
		base = "https://search.brave.com"
	}
	doc, err := b.Client.getDocument(ctx, base+"/search?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	c := newCollector(limit)
	doc.Find("div.snippet").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		title := item.Find(".snippet-title").First()
		if title.Length() == 0 {
			title = item.Find(".title").First()
		}
		href, ok := item.Closest("a").Attr("href")
		if !ok || !strings.HasPrefix(href, "http") {
			href, _ = item.Find(`a[href^="http"]`).First().Attr("href")
		}
		c.add(strings.TrimSpace(title.Text()), href)
		return !c.full()
	})
	return c.out, nil
}

// NewEngine builds a web backend by its configuration name.
func NewEngine(name string, client *Client) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "duckduckgo", "ddg":
		return &DuckDuckGo{Client: client}, nil
	case "bing":
		return &Bing{Client: client}, nil
	case "brave":
		return &Brave{Client: client}, nil
	}
	return nil, fmt.Errorf("unknown search engine %q", name)
}

// NewEngines builds backends in the given order.
func NewEngines(names []string, client *Client) ([]Backend, error) {
	out := make([]Backend, 0, len(names))
	for _, n := range names {
		b, err := NewEngine(n, client)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
