package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchURL = "https://esgf-node.llnl.gov/esg-search/search?experiment_id=historical&facets=source_id&format=application%2Fsolr%2Bjson&limit=0"

func TestKey(t *testing.T) {
	key1 := Key(searchURL)
	assert.Len(t, key1, 64) // SHA256 hex is 64 chars
	assert.Equal(t, key1, Key(searchURL))
	assert.NotEqual(t, key1, Key(searchURL+"&latest=true"))

	// Plain digest of the URL bytes.
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Key(""))
}

func TestCache_PutAndGet(t *testing.T) {
	c := New(t.TempDir(), DefaultTTL)
	body := []byte(`{"facet_counts":{"facet_fields":{"source_id":["CESM2",3]}}}`)

	require.NoError(t, c.Put(Key(searchURL), searchURL, body))

	got, ok := c.Get(Key(searchURL))
	require.True(t, ok)
	assert.JSONEq(t, string(body), string(got))
}

func TestCache_Miss(t *testing.T) {
	c := New(t.TempDir(), DefaultTTL)
	_, ok := c.Get(Key("https://example.org/nothing"))
	assert.False(t, ok)
}

func TestCache_Expired(t *testing.T) {
	c := New(t.TempDir(), time.Hour)
	fetched := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fetched }
	require.NoError(t, c.Put(Key(searchURL), searchURL, []byte(`{}`)))

	c.now = func() time.Time { return fetched.Add(30 * time.Minute) }
	_, ok := c.Get(Key(searchURL))
	assert.True(t, ok, "entry within ttl")

	c.now = func() time.Time { return fetched.Add(2 * time.Hour) }
	_, ok = c.Get(Key(searchURL))
	assert.False(t, ok, "entry past ttl")
}

func TestCache_NoTTLKeepsForever(t *testing.T) {
	c := New(t.TempDir(), 0)
	require.NoError(t, c.Put("k", searchURL, []byte(`[]`)))
	c.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }

	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestCache_RejectsNonJSON(t *testing.T) {
	c := New(t.TempDir(), DefaultTTL)
	err := c.Put("k", searchURL, []byte("<html>502 Bad Gateway</html>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-JSON")
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, DefaultTTL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("not json"), 0644))

	_, ok := c.Get("bad")
	assert.False(t, ok)
}

func TestCache_DisabledWithEmptyDir(t *testing.T) {
	c := New("", DefaultTTL)
	require.NoError(t, c.Put("k", searchURL, []byte(`{}`)))
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.NoError(t, c.Clear())
}

func TestCache_Clear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := New(dir, DefaultTTL)
	require.NoError(t, c.Put("a", searchURL, []byte(`{}`)))
	require.NoError(t, c.Put("b", searchURL, []byte(`{}`)))

	require.NoError(t, c.Clear())
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	// Clearing a missing directory is a no-op.
	assert.NoError(t, c.Clear())
}

func TestCache_ClearRefusesForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me"), 0644))

	err := New(dir, DefaultTTL).Clear()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-cache files")

	require.NoError(t, os.Remove(filepath.Join(dir, "notes.txt")))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	err = New(dir, DefaultTTL).Clear()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subdirectories")
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(t.TempDir(), DefaultTTL)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			assert.NoError(t, c.Put(key, searchURL, []byte(fmt.Sprintf(`{"n":%d}`, i))))
			_, ok := c.Get(key)
			assert.True(t, ok)
		}(i)
	}
	wg.Wait()
}
