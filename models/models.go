package models

import "time"

// FeedSource is a user-registered feed: a display name, the feed URL and
// optional tags. The name doubles as the cache file key.
type FeedSource struct {
	Name string   `toml:"name" yaml:"name"`
	URL  string   `toml:"url" yaml:"url"`
	Tags []string `toml:"tags,omitempty" yaml:"tags,omitempty"`
}

// FeedItem is one syndicated entry. An empty Link means the item has no link.
// Seen/liked state is not part of the cached record; it lives in the marks
// store and is joined back by identifier at render time.
type FeedItem struct {
	Title      string    `yaml:"title"`
	Link       string    `yaml:"link,omitempty"`
	Date       time.Time `yaml:"date"`
	SourceName string    `yaml:"source_name"`
	ShortForm  bool      `yaml:"short_form"`
}

// Identifier returns the dedup and like/seen lookup key for an item:
// its link if present, otherwise its title.
func (item FeedItem) Identifier() string {
	if item.Link != "" {
		return item.Link
	}
	return item.Title
}

// Article is the readable rendering of one fetched page. Never persisted.
type Article struct {
	Title   string
	Content string
}

// Event is a marker for messages delivered on the orchestrator's result
// channel. Consumers switch on the concrete type.
type Event interface{}

// CachedItemsEvent carries a provisional result served from the cache before
// any network round trip has finished.
type CachedItemsEvent struct {
	Items []FeedItem
}

// ItemsUpdatedEvent is the terminal result of a sync request.
type ItemsUpdatedEvent struct {
	Items []FeedItem
}

// ArticleEvent carries a successfully extracted article.
type ArticleEvent struct {
	Article Article
}

// ArticleErrorEvent reports a failed article fetch with a printable message.
type ArticleErrorEvent struct {
	Message string
}

// FeedAddedEvent reports a newly verified feed and its discovered name.
type FeedAddedEvent struct {
	URL  string
	Name string
}

// FeedAddErrorEvent reports that a feed URL could not be fetched or parsed.
type FeedAddErrorEvent struct {
	URL string
}
