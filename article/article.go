// Package article turns a web page into readable plain text. Pages behind
// paywalls or bot walls are retried with a crawler user agent and finally
// through a read-through proxy.
package article

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"miam/htmltext"
	"miam/models"
)

const (
	directTimeout = 10 * time.Second
	// Each strategy in the fallback chain gets a shorter budget so the chain
	// as a whole stays responsive.
	strategyTimeout = 8 * time.Second

	browserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	crawlerAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

	defaultProxyPrefix = "https://r.jina.ai/"
)

var (
	strategyAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miam_article_fetch_attempts_total",
		Help: "The total number of article fetch attempts per strategy",
	}, []string{"strategy"})
	strategyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miam_article_fetch_errors_total",
		Help: "The total number of failed article fetch attempts per strategy",
	}, []string{"strategy"})
)

// Fetcher downloads article pages. Timeouts are applied per attempt via
// request contexts, so the client itself carries none.
type Fetcher struct {
	Client *http.Client
	// ProxyPrefix is prepended to the article URL for the read-through proxy
	// strategy.
	ProxyPrefix string
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:      &http.Client{},
		ProxyPrefix: defaultProxyPrefix,
	}
}

type strategy struct {
	name    string
	url     string
	agent   string
	timeout time.Duration
	// pageURL is the original article location, used for title fallbacks even
	// when the request itself goes through the proxy.
	pageURL string
}

// Fetch retrieves and extracts the article at rawURL. Without bypass it is a
// single browser-agent request. With bypass, strategies run in order until
// one yields readable content: direct, then a crawler user agent, then the
// read-through proxy. The error of a failed chain wraps every attempt's
// error.
func (f *Fetcher) Fetch(rawURL string, bypass bool) (models.Article, error) {
	if !bypass {
		article, err := f.attempt(strategy{"direct", rawURL, browserAgent, directTimeout, rawURL})
		if err != nil {
			return models.Article{}, fmt.Errorf("failed to load article: %w", err)
		}
		return article, nil
	}

	strategies := []strategy{
		{"direct", rawURL, browserAgent, strategyTimeout, rawURL},
		{"crawler", rawURL, crawlerAgent, strategyTimeout, rawURL},
		{"proxy", f.ProxyPrefix + rawURL, browserAgent, strategyTimeout, rawURL},
	}

	var errs []error
	for _, st := range strategies {
		article, err := f.attempt(st)
		if err == nil {
			return article, nil
		}
		log.WithFields(log.Fields{
			"strategy": st.name,
			"url":      rawURL,
		}).Warnf("article fetch attempt failed: %s", err)
		errs = append(errs, fmt.Errorf("%s: %w", st.name, err))
	}

	return models.Article{}, fmt.Errorf("all fetch strategies failed: %w", errors.Join(errs...))
}

func (f *Fetcher) attempt(st strategy) (models.Article, error) {
	strategyAttempts.WithLabelValues(st.name).Inc()

	article, err := f.fetchOnce(st)
	if err != nil {
		strategyErrors.WithLabelValues(st.name).Inc()
		return models.Article{}, err
	}
	return article, nil
}

func (f *Fetcher) fetchOnce(st strategy) (models.Article, error) {
	ctx, cancel := context.WithTimeout(context.Background(), st.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, st.url, nil)
	if err != nil {
		return models.Article{}, fmt.Errorf("invalid article url: %w", err)
	}
	req.Header.Set("User-Agent", st.agent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return models.Article{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Article{}, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Article{}, fmt.Errorf("failed to read page body: %w", err)
	}

	return Extract(st.pageURL, string(body))
}

// Extract pulls a title and readable text out of one fetched page. The first
// of article, main and body that converts to non-empty text supplies the
// content. Plain text responses, as served by the proxy, parse into an
// implicit body and pass through the converter nearly untouched.
func Extract(pageURL, body string) (models.Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return models.Article{}, fmt.Errorf("failed to parse page: %w", err)
	}

	content := ""
	for _, selector := range []string{"article", "main", "body"} {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		markup, err := sel.Html()
		if err != nil {
			continue
		}
		if text := htmltext.Convert(markup); strings.TrimSpace(text) != "" {
			content = text
			break
		}
	}
	if content == "" {
		return models.Article{}, errors.New("no readable content found")
	}

	return models.Article{
		Title:   extractTitle(doc, pageURL),
		Content: content,
	}, nil
}

// extractTitle tries the title element, then the first h1, then falls back
// to the page's host name.
func extractTitle(doc *goquery.Document, pageURL string) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		return u.Host
	}
	return pageURL
}
