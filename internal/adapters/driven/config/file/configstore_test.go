package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not toml {{{[["), 0600))

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte{}, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("server.url")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestConfigStore(t)

	require.NoError(t, store.Set("server.url", "https://grid.example.com"))
	require.NoError(t, store.Set("sync.interval_ms", int64(30000)))
	require.NoError(t, store.Set("sync.rate_limit", 2.5))
	require.NoError(t, store.Set("sync.auto", true))

	assert.Equal(t, "https://grid.example.com", store.GetString("server.url"))
	assert.Equal(t, 30000, store.GetInt("sync.interval_ms"))
	assert.InDelta(t, 2.5, store.GetFloat("sync.rate_limit"), 0.0001)
	assert.InDelta(t, 30000.0, store.GetFloat("sync.interval_ms"), 0.0001)
	assert.True(t, store.GetBool("sync.auto"))

	// Wrong types read as zero values.
	assert.Equal(t, "", store.GetString("sync.auto"))
	assert.Equal(t, 0, store.GetInt("server.url"))
	assert.Equal(t, 0.0, store.GetFloat("sync.auto"))
	assert.False(t, store.GetBool("server.url"))
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	first, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, first.Set("server.url", "https://grid.example.com"))
	require.NoError(t, first.Set("sync.interval_ms", int64(60000)))
	require.NoError(t, first.Set("sync.rate_limit", 5.0))
	require.NoError(t, first.Set("sync.auto", true))

	second, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "https://grid.example.com", second.GetString("server.url"))
	assert.Equal(t, 60000, second.GetInt("sync.interval_ms"))
	assert.InDelta(t, 5.0, second.GetFloat("sync.rate_limit"), 0.0001)
	assert.True(t, second.GetBool("sync.auto"))
}

func TestConfigStore_NestedTablesFlatten(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[server]\nurl = \"https://grid.example.com\"\n\n[sync]\nauto = true\nrate_limit = 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "https://grid.example.com", store.GetString("server.url"))
	assert.True(t, store.GetBool("sync.auto"))
	assert.InDelta(t, 3.0, store.GetFloat("sync.rate_limit"), 0.0001)
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("list", []string{"a", "b"}))
	require.NoError(t, store.Set("scalar", "a"))

	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("list"))
	assert.Nil(t, store.GetStringSlice("scalar"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_Delete(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("auth.token", "secret"))

	require.NoError(t, store.Delete("auth.token"))
	require.NoError(t, store.Delete("auth.token"))

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	_, ok := reloaded.Get("auth.token")
	assert.False(t, ok)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("auth.token", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("server.url", "https://grid.example.com"))

	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("sync.auto", true))
}

func TestConfigStore_Load_InvalidTOML(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("server.url", "https://grid.example.com"))
	require.NoError(t, os.WriteFile(store.Path(), []byte("invalid ][}{"), 0600))

	assert.Error(t, store.Load())
	// The previous values survive a failed reload.
	assert.Equal(t, "https://grid.example.com", store.GetString("server.url"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestConfigStore(t)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.GetFloat(key)
			_, _ = store.Get(key)
		}(i)
	}
	wg.Wait()
}

func TestConfigStore_SaveWritesTables(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("server.url", "https://grid.example.com"))
	require.NoError(t, store.Set("sync.auto", true))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[server]")
	assert.Contains(t, string(data), "[sync]")
	assert.NotContains(t, string(data), `"server.url"`)
}

func TestConfigStore_SaveLeavesNoTempFiles(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("server.url", "https://grid.example.com"))
	require.NoError(t, store.Set("sync.auto", false))

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.toml", entries[0].Name())
}

func TestNestKeys(t *testing.T) {
	t.Run("builds tables", func(t *testing.T) {
		nested := nestKeys(map[string]any{
			"server.url":       "https://grid.example.com",
			"sync.auto":        true,
			"sync.interval_ms": int64(30000),
			"top":              "level",
		})

		assert.Equal(t, map[string]any{
			"server": map[string]any{"url": "https://grid.example.com"},
			"sync":   map[string]any{"auto": true, "interval_ms": int64(30000)},
			"top":    "level",
		}, nested)
	})

	t.Run("scalar prefix keeps the dotted key", func(t *testing.T) {
		flat := map[string]any{"log": "stderr", "log.file": "/tmp/gridsync.log"}

		assert.Equal(t, flat, flattenKeys(nestKeys(flat), ""))
	})
}

func TestConfigStore_ConflictingKeysRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("log", "stderr"))
	require.NoError(t, store.Set("log.file", "/tmp/gridsync.log"))

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "stderr", reloaded.GetString("log"))
	assert.Equal(t, "/tmp/gridsync.log", reloaded.GetString("log.file"))
}
