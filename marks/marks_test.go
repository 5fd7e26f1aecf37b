package marks_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miam/marks"
)

func TestLoadMissingIsEmpty(t *testing.T) {
	s := marks.Load(filepath.Join(t.TempDir(), "likes.yml"))
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains("anything"))
}

func TestLoadCorruptIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "likes.yml")
	require.NoError(t, os.WriteFile(path, []byte("{{{nope"), 0o644))

	assert.Equal(t, 0, marks.Load(path).Len())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "seen.yml")

	s := marks.Load(path)
	s.Add("https://example.com/a")
	s.Add("https://example.com/b")
	s.Add("https://example.com/a")
	require.NoError(t, s.Save())

	loaded := marks.Load(path)
	assert.Equal(t, 2, loaded.Len())
	assert.True(t, loaded.Contains("https://example.com/a"))
	assert.True(t, loaded.Contains("https://example.com/b"))
}

func TestToggle(t *testing.T) {
	s := marks.Load(filepath.Join(t.TempDir(), "likes.yml"))

	assert.True(t, s.Toggle("id"))
	assert.True(t, s.Contains("id"))
	assert.False(t, s.Toggle("id"))
	assert.False(t, s.Contains("id"))
}

func TestLoadLikesAndSeenUseSeparateFiles(t *testing.T) {
	dir := t.TempDir()

	likes := marks.LoadLikes(dir)
	likes.Add("liked-item")
	require.NoError(t, likes.Save())

	assert.False(t, marks.LoadSeen(dir).Contains("liked-item"))
	assert.True(t, marks.LoadLikes(dir).Contains("liked-item"))
}
