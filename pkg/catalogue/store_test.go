package catalogue

import (
	"testing"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorePutGetList(t *testing.T) {
	s := openMemory(t)
	entries, err := LoadFile("testdata/templates.txt")
	require.NoError(t, err)

	n, err := s.PutAll(entries)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.Get("wish to buy something")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(entries[1], got))

	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(entries, list))
}

func TestStoreReplaceKeepsPosition(t *testing.T) {
	s := openMemory(t)
	entries, err := LoadFile("testdata/templates.txt")
	require.NoError(t, err)
	_, err = s.PutAll(entries)
	require.NoError(t, err)

	replaced := entries[0]
	replaced.Rules = entries[2].Rules
	require.NoError(t, s.Put(replaced))

	list, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, descriptions, descs(list))
	assert.Equal(t, entries[2].Rules, list[0].Rules)
}

func TestStoreDelete(t *testing.T) {
	s := openMemory(t)
	entries, err := LoadFile("testdata/templates.txt")
	require.NoError(t, err)
	_, err = s.PutAll(entries)
	require.NoError(t, err)

	require.NoError(t, s.Delete("wish to buy something"))
	_, err = s.Get("wish to buy something")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.True(t, errors.Is(s.Delete("wish to buy something"), errors.ErrNotFound))

	require.NoError(t, s.Put(entries[1]))
	list, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{descriptions[0], descriptions[2], descriptions[1]}, descs(list))
}

func TestStoreRejectsInvalidEntries(t *testing.T) {
	s := openMemory(t)
	entries, err := LoadFile("testdata/templates.txt")
	require.NoError(t, err)

	assert.True(t, errors.Is(s.Put(Entry{Rules: entries[0].Rules}), errors.ErrInvalidInput))
	assert.True(t, errors.Is(s.Put(Entry{Description: "empty"}), errors.ErrInvalidInput))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"no dir", func(c *Config) { c.DataDir = "" }, false},
		{"in memory without dir", func(c *Config) { c.DataDir = ""; c.InMemory = true }, true},
		{"read-only memory", func(c *Config) { c.InMemory = true; c.ReadOnly = true }, false},
		{"zero block cache", func(c *Config) { c.BlockCacheSize = 0 }, false},
		{"negative index cache", func(c *Config) { c.IndexCacheSize = -1 }, false},
		{"low memory profile", func(c *Config) { c.Profile = ProfileLowMem }, true},
		{"unknown profile", func(c *Config) { c.Profile = "Turbo" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("/tmp/catalogue")
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, errors.ErrInvalidInput), "got %v", err)
			}
		})
	}
}

func TestStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	entries, err := LoadFile("testdata/templates.txt")
	require.NoError(t, err)

	s, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	_, err = s.PutAll(entries)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	cfg := DefaultConfig(dir)
	cfg.ReadOnly = true
	ro, err := Open(cfg)
	require.NoError(t, err)
	defer ro.Close()

	list, err := ro.List()
	require.NoError(t, err)
	assert.Equal(t, descriptions, descs(list))
}
