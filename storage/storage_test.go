package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "auth:accessToken", "tok-1"))
	v, ok, err := store.Get(ctx, "auth:accessToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", v)

	require.NoError(t, store.Set(ctx, "auth:accessToken", "tok-2"))
	v, _, err = store.Get(ctx, "auth:accessToken")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", v)

	require.NoError(t, store.Remove(ctx, "auth:accessToken"))
	_, ok, err = store.Get(ctx, "auth:accessToken")
	require.NoError(t, err)
	assert.False(t, ok)

	// removing an absent key is not an error
	require.NoError(t, store.Remove(ctx, "auth:accessToken"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	store, err := NewFile(path)
	require.NoError(t, err)
	exerciseStore(t, store)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "auth:user", `{"id":"u1"}`))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewFile(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, "auth:user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"u1"}`, v)
}

func TestFileStoreRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFile(path)
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLite("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	exerciseStore(t, store)
}

func TestSQLiteStoreEmptyKeyMatchesNothing(t *testing.T) {
	store, err := NewSQLite("file:kv_empty_key?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "auth:user", "ada"))
	_, ok, err := store.Get(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Remove(ctx, ""))
	v, ok, err := store.Get(ctx, "auth:user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ada", v)
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := NewRedis(&RedisConfig{Addr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	exerciseStore(t, store)

	require.NoError(t, store.Set(context.Background(), "k", "v"))
	assert.True(t, mr.Exists("test:k"))
}

func TestRedisStoreRequiresAddress(t *testing.T) {
	_, err := NewRedis(&RedisConfig{})
	assert.Error(t, err)

	_, err = NewRedis(nil)
	assert.Error(t, err)
}

func TestFactory(t *testing.T) {
	store, err := New(Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.NotNil(t, store)

	_, err = New(Config{Driver: "etcd"})
	assert.Error(t, err)

	_, err = New(Config{Driver: DriverSQLite})
	assert.Error(t, err)

	kc, err := NewKeychain(Config{Keychain: DriverNone})
	require.NoError(t, err)
	assert.Nil(t, kc)

	_, err = NewKeychain(Config{Keychain: "vault"})
	assert.Error(t, err)
}

func TestFileKeychain(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "keychain")
	kc, err := NewFileKeychain(dir)
	require.NoError(t, err)

	_, ok, err := kc.Get(ctx, "auth:refreshToken")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kc.Set(ctx, "auth:refreshToken", "refresh-1"))
	secret, ok, err := kc.Get(ctx, "auth:refreshToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "refresh-1", secret)

	info, err := os.Stat(filepath.Join(dir, "auth_refreshToken"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, kc.Reset(ctx, "auth:refreshToken"))
	require.NoError(t, kc.Reset(ctx, "auth:refreshToken"))
	_, ok, err = kc.Get(ctx, "auth:refreshToken")
	require.NoError(t, err)
	assert.False(t, ok)
}
