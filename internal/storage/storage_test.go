package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/examtester/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseKV runs the shared contract against any backend.
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "examTesterToken", "abc"))
	v, ok, err := kv.Get(ctx, "examTesterToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	require.NoError(t, kv.Set(ctx, "examTesterToken", "def"))
	v, _, _ = kv.Get(ctx, "examTesterToken")
	assert.Equal(t, "def", v)

	require.NoError(t, kv.Remove(ctx, "examTesterToken"))
	_, ok, err = kv.Get(ctx, "examTesterToken")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Remove(ctx, "never-set"))
}

func TestMemory(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	kv, err := NewFile(path)
	require.NoError(t, err)
	exerciseKV(t, kv)
}

func TestFile_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	kv, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "examTesterUser", `{"id":"u1"}`))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewFile(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, "examTesterUser")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"u1"}`, v)
}

func TestFile_CorruptFileReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	kv, err := NewFile(path)
	require.NoError(t, err)
	_, ok, err := kv.Get(context.Background(), "examTesterToken")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpen_Memory(t *testing.T) {
	kv, closeFn, err := Open(context.Background(), &config.Config{SessionBackend: config.SessionBackendMemory}, zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()
	_, isMem := kv.(*Memory)
	assert.True(t, isMem)
}

func TestRedisKV(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, &config.Config{RedisURL: url}, zerolog.Nop())
	require.NoError(t, err)
	defer rdb.Close()

	exerciseKV(t, NewRedisKV(rdb, "examtester-test:"))
}
