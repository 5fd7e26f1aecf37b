package syncer_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miam/article"
	"miam/cache"
	"miam/feed"
	"miam/models"
	"miam/syncer"
)

const feedDoc = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Upstream Title</title>
    <item>
      <title>Fresh item</title>
      <link>https://example.com/fresh</link>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
  </channel>
</rss>`

func newOrchestrator(t *testing.T) (*syncer.Orchestrator, *cache.Store) {
	t.Helper()
	store := cache.New(t.TempDir())
	return syncer.New(store, feed.NewFetcher(), article.NewFetcher()), store
}

// nextEvent fails the test instead of hanging when no event arrives.
func nextEvent(t *testing.T, o *syncer.Orchestrator) models.Event {
	t.Helper()
	select {
	case event := <-o.Events():
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestSyncAllEmitsCachedThenUpdated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedDoc)
	}))
	defer server.Close()

	o, store := newOrchestrator(t)
	store.MergeAndSave("My Source", []models.FeedItem{{
		Title:      "Cached item",
		Link:       "https://example.com/cached",
		Date:       time.Now().UTC(),
		SourceName: "My Source",
	}})

	o.SyncAll([]models.FeedSource{{Name: "My Source", URL: server.URL}})

	cached, ok := nextEvent(t, o).(models.CachedItemsEvent)
	require.True(t, ok, "first event should be the cached snapshot")
	assert.Len(t, cached.Items, 1)

	updated, ok := nextEvent(t, o).(models.ItemsUpdatedEvent)
	require.True(t, ok, "second event should be the network result")
	require.Len(t, updated.Items, 2)
}

func TestSyncAllColdCacheSkipsProvisionalEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedDoc)
	}))
	defer server.Close()

	o, _ := newOrchestrator(t)
	o.SyncAll([]models.FeedSource{{Name: "src", URL: server.URL}})

	updated, ok := nextEvent(t, o).(models.ItemsUpdatedEvent)
	require.True(t, ok, "cold cache should go straight to the terminal event")
	assert.Len(t, updated.Items, 1)
	assert.Equal(t, "src", updated.Items[0].SourceName)
}

func TestSyncAllSkipsFailingSource(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedDoc)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	o, _ := newOrchestrator(t)
	o.SyncAll([]models.FeedSource{
		{Name: "bad", URL: bad.URL},
		{Name: "good", URL: good.URL},
	})

	updated, ok := nextEvent(t, o).(models.ItemsUpdatedEvent)
	require.True(t, ok)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "good", updated.Items[0].SourceName)
}

func TestSyncOneKeepsCacheOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	o, store := newOrchestrator(t)
	store.MergeAndSave("src", []models.FeedItem{{
		Title:      "Survivor",
		Link:       "https://example.com/survivor",
		Date:       time.Now().UTC(),
		SourceName: "src",
	}})

	o.SyncOne(models.FeedSource{Name: "src", URL: server.URL})

	_, ok := nextEvent(t, o).(models.CachedItemsEvent)
	require.True(t, ok)

	updated, ok := nextEvent(t, o).(models.ItemsUpdatedEvent)
	require.True(t, ok)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "Survivor", updated.Items[0].Title)
}

func TestSyncOneMergesFetchedItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedDoc)
	}))
	defer server.Close()

	o, _ := newOrchestrator(t)
	o.SyncOne(models.FeedSource{Name: "Named By User", URL: server.URL})

	updated, ok := nextEvent(t, o).(models.ItemsUpdatedEvent)
	require.True(t, ok)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "Named By User", updated.Items[0].SourceName)
}

func TestFetchArticleError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	o, _ := newOrchestrator(t)
	o.FetchArticle(server.URL, false)

	errEvent, ok := nextEvent(t, o).(models.ArticleErrorEvent)
	require.True(t, ok)
	assert.NotEmpty(t, errEvent.Message)
}

func TestFetchArticleSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Hello</title></head><body><p>world</p></body></html>`)
	}))
	defer server.Close()

	o, _ := newOrchestrator(t)
	o.FetchArticle(server.URL, false)

	event, ok := nextEvent(t, o).(models.ArticleEvent)
	require.True(t, ok)
	assert.Equal(t, "Hello", event.Article.Title)
	assert.Contains(t, event.Article.Content, "world")
}

func TestAddFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedDoc)
	}))
	defer server.Close()

	o, _ := newOrchestrator(t)
	o.AddFeed(server.URL)

	added, ok := nextEvent(t, o).(models.FeedAddedEvent)
	require.True(t, ok)
	assert.Equal(t, server.URL, added.URL)
	assert.Equal(t, "Upstream Title", added.Name)
}

func TestAddFeedRejectsNonFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>nope</body></html>")
	}))
	defer server.Close()

	o, _ := newOrchestrator(t)
	o.AddFeed(server.URL)

	failed, ok := nextEvent(t, o).(models.FeedAddErrorEvent)
	require.True(t, ok)
	assert.Equal(t, server.URL, failed.URL)
}
