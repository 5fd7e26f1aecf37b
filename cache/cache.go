// Package cache persists feed items as one YAML file per source. The cache
// is disposable: any file that cannot be read or parsed is treated as absent.
package cache

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"miam/models"
)

// Store reads and writes per-source item files under a single directory.
// Writes to the same source are serialized; different sources may be written
// concurrently.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(dir string) *Store {
	return &Store{
		dir:   dir,
		locks: map[string]*sync.Mutex{},
	}
}

// DefaultDir returns the standard cache location under the user's home
// directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".miam", "cache")
	}
	return filepath.Join(home, ".miam", "cache")
}

// Load returns the cached items for a source, or nil when no usable cache
// file exists. A corrupt file logs a warning and reads as empty.
func (s *Store) Load(source string) []models.FeedItem {
	data, err := os.ReadFile(s.path(source))
	if err != nil {
		return nil
	}

	var items []models.FeedItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		log.WithFields(log.Fields{
			"source": source,
		}).Warnf("discarding unreadable cache file: %s", err)
		return nil
	}
	return items
}

// LoadAll reads every cache file in the directory and returns the combined
// result, newest first with duplicates removed.
func (s *Store) LoadAll() []models.FeedItem {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	var items []models.FeedItem
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var fileItems []models.FeedItem
		if err := yaml.Unmarshal(data, &fileItems); err != nil {
			log.WithFields(log.Fields{
				"file": entry.Name(),
			}).Warnf("skipping unreadable cache file: %s", err)
			continue
		}
		items = append(items, fileItems...)
	}

	return dedupe(sortByDateDesc(items))
}

// MergeAndSave folds freshly fetched items into the cached set for a source
// and persists the result, newest first with one entry per identifier. A
// per-source lock serializes concurrent merges for the same source so no
// read-merge-write cycle clobbers another. Returns the merged set.
func (s *Store) MergeAndSave(source string, fetched []models.FeedItem) []models.FeedItem {
	lock := s.sourceLock(source)
	lock.Lock()
	defer lock.Unlock()

	merged := dedupe(sortByDateDesc(append(s.Load(source), fetched...)))
	s.save(source, merged)
	return merged
}

// save writes best-effort; the cache is rebuildable so failures are logged
// and not returned.
func (s *Store) save(source string, items []models.FeedItem) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		log.Warnf("could not create cache directory: %s", err)
		return
	}

	data, err := yaml.Marshal(items)
	if err != nil {
		log.WithFields(log.Fields{
			"source": source,
		}).Warnf("could not encode cache file: %s", err)
		return
	}

	if err := os.WriteFile(s.path(source), data, 0o644); err != nil {
		log.WithFields(log.Fields{
			"source": source,
		}).Warnf("could not write cache file: %s", err)
	}
}

func (s *Store) sourceLock(source string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[source]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[source] = lock
	}
	return lock
}

func (s *Store) path(source string) string {
	return filepath.Join(s.dir, fileName(source))
}

// fileName maps a source name to its cache file. Anything outside letters,
// digits, hyphen and underscore becomes an underscore, so distinct names may
// share a file; callers keep source names distinct.
func fileName(source string) string {
	var b strings.Builder
	for _, r := range source {
		if r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String() + ".yml"
}

// sortByDateDesc is stable so equal dates keep their arrival order, which in
// turn lets dedupe prefer the earlier-listed occurrence.
func sortByDateDesc(items []models.FeedItem) []models.FeedItem {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
	return items
}

func dedupe(items []models.FeedItem) []models.FeedItem {
	return lo.UniqBy(items, func(item models.FeedItem) string {
		return item.Identifier()
	})
}
