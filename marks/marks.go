// Package marks persists small sets of item identifiers, one YAML file per
// kind of mark. Likes and seen state live here, outside the disposable feed
// cache, so clearing the cache never loses them.
package marks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	likesFile = "likes.yml"
	seenFile  = "seen.yml"
)

// Set is a persisted set of item identifiers backed by a YAML sequence.
type Set struct {
	path  string
	items map[string]struct{}
}

// Load reads the set at path. Missing or unreadable files read as empty.
func Load(path string) *Set {
	s := &Set{
		path:  path,
		items: map[string]struct{}{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}

	var ids []string
	if err := yaml.Unmarshal(data, &ids); err != nil {
		return s
	}
	for _, id := range ids {
		s.items[id] = struct{}{}
	}
	return s
}

// LoadLikes reads the liked-item set stored under dir.
func LoadLikes(dir string) *Set {
	return Load(filepath.Join(dir, likesFile))
}

// LoadSeen reads the seen-item set stored under dir.
func LoadSeen(dir string) *Set {
	return Load(filepath.Join(dir, seenFile))
}

// DefaultDir returns the standard marks location, the application home
// directory itself.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".miam"
	}
	return filepath.Join(home, ".miam")
}

func (s *Set) Contains(id string) bool {
	_, ok := s.items[id]
	return ok
}

// Add inserts an identifier. Adding an existing one is a no-op.
func (s *Set) Add(id string) {
	s.items[id] = struct{}{}
}

// Toggle flips membership for an identifier and reports the new state.
func (s *Set) Toggle(id string) bool {
	if s.Contains(id) {
		delete(s.items, id)
		return false
	}
	s.items[id] = struct{}{}
	return true
}

func (s *Set) Len() int {
	return len(s.items)
}

// Save writes the set back to its file, sorted for stable diffs.
func (s *Set) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create marks directory: %w", err)
	}

	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := yaml.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode marks file: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write marks file: %w", err)
	}
	return nil
}
