package search

import "net/url"

func GoogleSearchURL(query string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}

func YouTubeSearchURL(query string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
}

// ManualLinks are offered when automatic search comes back empty so the user
// can run the query themselves.
func ManualLinks(query string) []Result {
	return []Result{
		{Title: "Search Google for \"" + query + "\"", URL: GoogleSearchURL(query)},
		{Title: "Search YouTube for \"" + query + "\"", URL: YouTubeSearchURL(query)},
	}
}
