// Package syncer coordinates background work and reports results as typed
// events on a single channel. Callers kick off a request, then consume
// events; each request emits at most one provisional event followed by
// exactly one terminal event.
package syncer

import (
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"miam/article"
	"miam/cache"
	"miam/feed"
	"miam/models"
)

// eventBuffer absorbs bursts so producers never block on a slow consumer
// draining between redraws.
const eventBuffer = 64

type Orchestrator struct {
	cache    *cache.Store
	feeds    *feed.Fetcher
	articles *article.Fetcher
	events   chan models.Event
}

func New(store *cache.Store, feeds *feed.Fetcher, articles *article.Fetcher) *Orchestrator {
	return &Orchestrator{
		cache:    store,
		feeds:    feeds,
		articles: articles,
		events:   make(chan models.Event, eventBuffer),
	}
}

// Events returns the channel all results arrive on.
func (o *Orchestrator) Events() <-chan models.Event {
	return o.events
}

// SyncAll refreshes every source. Cached items are emitted immediately when
// any exist, then a single goroutine fetches the sources in order. A source
// that fails to fetch is logged and skipped; its cached items survive. The
// terminal event carries the full merged set across all sources.
func (o *Orchestrator) SyncAll(sources []models.FeedSource) {
	if cached := o.cache.LoadAll(); len(cached) > 0 {
		o.events <- models.CachedItemsEvent{Items: cached}
	}

	go func() {
		for _, source := range sources {
			items, err := o.feeds.Fetch(source.URL)
			if err != nil {
				log.WithFields(log.Fields{
					"source": source.Name,
					"url":    source.URL,
				}).Warnf("skipping source: %s", err)
				continue
			}
			o.cache.MergeAndSave(source.Name, stamped(items, source.Name))
		}
		o.events <- models.ItemsUpdatedEvent{Items: o.cache.LoadAll()}
	}()
}

// SyncOne refreshes a single source. On fetch failure the terminal event
// simply carries whatever the cache already held.
func (o *Orchestrator) SyncOne(source models.FeedSource) {
	if cached := o.cache.Load(source.Name); len(cached) > 0 {
		o.events <- models.CachedItemsEvent{Items: cached}
	}

	go func() {
		items, err := o.feeds.Fetch(source.URL)
		if err != nil {
			log.WithFields(log.Fields{
				"source": source.Name,
				"url":    source.URL,
			}).Warnf("could not refresh source: %s", err)
			o.events <- models.ItemsUpdatedEvent{Items: o.cache.Load(source.Name)}
			return
		}
		merged := o.cache.MergeAndSave(source.Name, stamped(items, source.Name))
		o.events <- models.ItemsUpdatedEvent{Items: merged}
	}()
}

// FetchArticle retrieves an article in the background and reports it as an
// ArticleEvent, or an ArticleErrorEvent with a printable message.
func (o *Orchestrator) FetchArticle(url string, bypass bool) {
	go func() {
		result, err := o.articles.Fetch(url, bypass)
		if err != nil {
			o.events <- models.ArticleErrorEvent{Message: err.Error()}
			return
		}
		o.events <- models.ArticleEvent{Article: result}
	}()
}

// AddFeed verifies that a URL serves a parseable feed before it is saved.
// On success the event carries a suggested name taken from the feed's own
// title.
func (o *Orchestrator) AddFeed(url string) {
	go func() {
		items, err := o.feeds.Fetch(url)
		if err != nil {
			log.WithFields(log.Fields{
				"url": url,
			}).Warnf("feed verification failed: %s", err)
			o.events <- models.FeedAddErrorEvent{URL: url}
			return
		}

		name := "Unknown"
		if len(items) > 0 && items[0].SourceName != "" {
			name = items[0].SourceName
		}
		o.events <- models.FeedAddedEvent{URL: url, Name: name}
	}()
}

// stamped overrides each item's source attribution with the configured
// source name, so cache grouping follows the user's names rather than feed
// titles.
func stamped(items []models.FeedItem, sourceName string) []models.FeedItem {
	return lo.Map(items, func(item models.FeedItem, _ int) models.FeedItem {
		item.SourceName = sourceName
		return item
	})
}
