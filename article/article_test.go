package article_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miam/article"
)

const pageDoc = `<html>
<head><title>The Page Title</title></head>
<body>
  <nav>menu</nav>
  <article><h1>Heading</h1><p>Readable paragraph.</p></article>
</body>
</html>`

func TestFetchDirect(t *testing.T) {
	var agents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Get("User-Agent"))
		fmt.Fprint(w, pageDoc)
	}))
	defer server.Close()

	got, err := article.NewFetcher().Fetch(server.URL, false)
	require.NoError(t, err)

	assert.Equal(t, "The Page Title", got.Title)
	assert.Contains(t, got.Content, "# Heading")
	assert.Contains(t, got.Content, "Readable paragraph.")
	assert.NotContains(t, got.Content, "menu")

	require.Len(t, agents, 1)
	assert.Contains(t, agents[0], "Mozilla/5.0")
	assert.NotContains(t, agents[0], "Googlebot")
}

func TestFetchNoBypassDoesNotFallBack(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := article.NewFetcher().Fetch(server.URL, false)
	assert.Error(t, err)
	assert.Equal(t, 1, requests)
}

func TestFetchBypassFallsBackToCrawlerAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("User-Agent"), "Googlebot") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, pageDoc)
	}))
	defer server.Close()

	got, err := article.NewFetcher().Fetch(server.URL, true)
	require.NoError(t, err)
	assert.Equal(t, "The Page Title", got.Title)
}

func TestFetchBypassFallsBackToProxy(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer origin.Close()

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Proxied article text.")
	}))
	defer proxy.Close()

	f := article.NewFetcher()
	f.ProxyPrefix = proxy.URL + "/"

	got, err := f.Fetch(origin.URL, true)
	require.NoError(t, err)
	assert.Contains(t, got.Content, "Proxied article text.")
}

func TestFetchBypassAggregatesErrors(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer origin.Close()

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer proxy.Close()

	f := article.NewFetcher()
	f.ProxyPrefix = proxy.URL + "/"

	_, err := f.Fetch(origin.URL, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direct")
	assert.Contains(t, err.Error(), "crawler")
	assert.Contains(t, err.Error(), "proxy")
}

func TestExtract(t *testing.T) {
	tests := map[string]struct {
		body        string
		wantTitle   string
		wantContent string
	}{
		"article element preferred": {
			body:        `<html><head><title>T</title></head><body><p>noise</p><article><p>core</p></article></body></html>`,
			wantTitle:   "T",
			wantContent: "core",
		},
		"main element when no article": {
			body:        `<html><head><title>T</title></head><body><main><p>main text</p></main></body></html>`,
			wantTitle:   "T",
			wantContent: "main text",
		},
		"body fallback": {
			body:        `<html><head><title>T</title></head><body><p>whole body</p></body></html>`,
			wantTitle:   "T",
			wantContent: "whole body",
		},
		"h1 title fallback": {
			body:        `<html><body><h1>From Heading</h1><p>text</p></body></html>`,
			wantTitle:   "From Heading",
			wantContent: "text",
		},
		"host title fallback": {
			body:        `plain proxy text`,
			wantTitle:   "example.com",
			wantContent: "plain proxy text",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := article.Extract("https://example.com/post", tc.body)
			require.NoError(t, err)
			assert.Equal(t, tc.wantTitle, got.Title)
			assert.Contains(t, got.Content, tc.wantContent)
		})
	}
}

func TestExtractEmptyPage(t *testing.T) {
	_, err := article.Extract("https://example.com/post", "<html><body></body></html>")
	assert.Error(t, err)
}
