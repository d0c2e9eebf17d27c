package localstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := store.Get(KeyPrimary)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(KeyPrimary, []byte(`{"records":[]}`)))

	blob, ok, err := store.Get(KeyPrimary)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"records":[]}`, string(blob))
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(KeySettings, []byte(`1`)))
	require.NoError(t, store.Set(KeySettings, []byte(`2`)))

	blob, ok, err := store.Get(KeySettings)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`2`), blob)
}

func TestFileStoreDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyInventory, []byte(`[]`)))
	require.NoError(t, store.Delete(KeyInventory))

	_, ok, err := store.Get(KeyInventory)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete(KeyInventory))
}

func TestFileStoreKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyPrimary, []byte(`{}`)))
	require.NoError(t, store.Set(KeyLegacy, []byte(`{}`)))
	require.NoError(t, store.Set(LastSyncKey("abc"), []byte(`x`)))

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{KeyPrimary, KeyLegacy, LastSyncKey("abc")}, keys)
}

func TestFileStoreRejectsBadKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "a/b", `a\b`, "../escape"} {
		assert.Error(t, store.Set(key, []byte(`x`)), "key %q", key)
		_, _, err := store.Get(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyReminders, []byte(`[]`)))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)

	blob, ok, err := reopened.Get(KeyReminders)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`[]`), blob)
}
