package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/sagre-kalender/internal/storage"
)

func TestOpenStore_File(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()

	store, err := OpenStore(cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store.Snapshots)

	require.NoError(t, store.Set(storage.KeyTheme, []byte(storage.ThemeDark)))
	data, ok, err := store.Get(storage.KeyTheme)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, storage.ThemeDark, string(data))
}

func TestOpenStore_Unknown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store = "etcd"

	_, err := OpenStore(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown store")
}

func TestOpenStore_RedisUnreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store = StoreRedis
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	_, err := OpenStore(cfg, zap.NewNop())
	assert.Error(t, err)
}
