// Package feed fetches syndication feeds and normalizes them into FeedItems.
package feed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"miam/models"
)

const (
	userAgent    = "miam/0.3.0 (RSS Reader)"
	fetchTimeout = 15 * time.Second

	youtubeBase = "https://www.youtube.com"
	rssAppBase  = "https://rss.app"
)

var (
	fetchesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "miam_feed_fetches_total",
		Help: "The total number of feed fetch attempts",
	})
	fetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "miam_feed_fetch_errors_total",
		Help: "The total number of failed feed fetches",
	})
)

// Fetcher downloads and parses feeds. The zero value is not usable; construct
// with NewFetcher.
type Fetcher struct {
	// Client performs all HTTP requests. Swap it out in tests.
	Client *http.Client
	// YouTubeBase is the scheme and host used for handle resolution and for
	// rewritten YouTube feed URLs.
	YouTubeBase string
	// RSSAppBase is the scheme and host for rewritten rss.app feed URLs.
	RSSAppBase string
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:      &http.Client{Timeout: fetchTimeout},
		YouTubeBase: youtubeBase,
		RSSAppBase:  rssAppBase,
	}
}

// NormalizeURL rewrites page-style URLs into their feed-endpoint equivalents.
// Unrecognized URLs pass through unchanged. Resolving a YouTube handle needs
// one page fetch; if that fails the input is returned as-is and the fetch of
// the unmodified URL will surface the real error.
func (f *Fetcher) NormalizeURL(raw string) string {
	for _, prefix := range []string{"https://rss.app/feed/", "http://rss.app/feed/"} {
		if id, ok := strings.CutPrefix(raw, prefix); ok {
			id = strings.TrimSuffix(id, ".xml")
			if id != "" {
				return f.RSSAppBase + "/feeds/" + id + ".xml"
			}
		}
	}

	if _, rest, ok := strings.Cut(raw, "youtube.com/channel/"); ok {
		if id := pathSegment(rest); id != "" {
			return f.YouTubeBase + "/feeds/videos.xml?channel_id=" + id
		}
	}

	if handle, ok := f.cutHandle(raw); ok {
		if handle == "" {
			return raw
		}
		id, err := f.resolveHandle(handle)
		if err != nil {
			log.WithFields(log.Fields{
				"handle": handle,
			}).Warnf("could not resolve channel handle: %s", err)
			return raw
		}
		return f.YouTubeBase + "/feeds/videos.xml?channel_id=" + id
	}

	return raw
}

// cutHandle extracts an @handle from a channel page URL. Matching against
// YouTubeBase as well keeps the rewrite working when the base is overridden.
func (f *Fetcher) cutHandle(raw string) (string, bool) {
	if _, rest, ok := strings.Cut(raw, "youtube.com/@"); ok {
		return pathSegment(rest), true
	}
	if rest, ok := strings.CutPrefix(raw, f.YouTubeBase+"/@"); ok {
		return pathSegment(rest), true
	}
	return "", false
}

// pathSegment cuts everything after the first path or query separator.
func pathSegment(s string) string {
	s, _, _ = strings.Cut(s, "/")
	s, _, _ = strings.Cut(s, "?")
	return s
}

// resolveHandle fetches the channel page for an @handle and scans the raw
// HTML for the embedded channel id. YouTube serves it in the initial page
// data under "externalId" and again under "channelId".
func (f *Fetcher) resolveHandle(handle string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, f.YouTubeBase+"/@"+handle, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("channel page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	page := string(body)
	for _, marker := range []string{`"externalId":"`, `"channelId":"`} {
		if _, rest, ok := strings.Cut(page, marker); ok {
			if id, _, ok := strings.Cut(rest, `"`); ok && id != "" {
				return id, nil
			}
		}
	}
	return "", fmt.Errorf("no channel id found on page for @%s", handle)
}

// Fetch normalizes the URL, downloads the document once and parses it as RSS,
// falling back to Atom when the RSS parse fails.
func (f *Fetcher) Fetch(rawURL string) ([]models.FeedItem, error) {
	fetchesProcessed.Inc()

	items, err := f.fetch(rawURL)
	if err != nil {
		fetchErrors.Inc()
		return nil, err
	}
	return items, nil
}

func (f *Fetcher) fetch(rawURL string) ([]models.FeedItem, error) {
	feedURL := f.NormalizeURL(rawURL)

	req, err := http.NewRequest(http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid feed url %s: %w", feedURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	items, rssErr := parseRSS(body)
	if rssErr == nil {
		return items, nil
	}

	items, atomErr := parseAtom(body)
	if atomErr == nil {
		return items, nil
	}

	return nil, fmt.Errorf("document is neither valid RSS nor Atom: %w", errors.Join(rssErr, atomErr))
}

func parseRSS(body []byte) ([]models.FeedItem, error) {
	parsed, err := (&rss.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	items := make([]models.FeedItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			title = "Untitled"
		}

		date := time.Now().UTC()
		if entry.PubDateParsed != nil {
			date = entry.PubDateParsed.UTC()
		}

		items = append(items, models.FeedItem{
			Title:      title,
			Link:       strings.TrimSpace(entry.Link),
			Date:       date,
			SourceName: strings.TrimSpace(parsed.Title),
			ShortForm:  IsShortForm(entry.Link, title, entry.Description),
		})
	}
	return items, nil
}

func parseAtom(body []byte) ([]models.FeedItem, error) {
	parsed, err := (&atom.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	items := make([]models.FeedItem, 0, len(parsed.Entries))
	for _, entry := range parsed.Entries {
		link := ""
		if len(entry.Links) > 0 {
			link = strings.TrimSpace(entry.Links[0].Href)
		}

		date := time.Now().UTC()
		if entry.PublishedParsed != nil {
			date = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			date = entry.UpdatedParsed.UTC()
		}

		title := strings.TrimSpace(entry.Title)
		items = append(items, models.FeedItem{
			Title:      title,
			Link:       link,
			Date:       date,
			SourceName: strings.TrimSpace(parsed.Title),
			ShortForm:  IsShortForm(link, title, entry.Summary),
		})
	}
	return items, nil
}
