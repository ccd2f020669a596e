package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEmptyAtFirstUse(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory()

	_, found, err := backend.Get(ctx, "planchat_rooms")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory()

	require.NoError(t, backend.Set(ctx, "k", []byte("v1")))

	got, found, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v1"), got)

	// Overwrite replaces the whole document
	require.NoError(t, backend.Set(ctx, "k", []byte("v2")))
	got, _, _ = backend.Get(ctx, "k")
	assert.Equal(t, []byte("v2"), got)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory()

	require.NoError(t, backend.Set(ctx, "k", []byte("abc")))

	got, _, _ := backend.Get(ctx, "k")
	got[0] = 'X'

	again, _, _ := backend.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	backend, err := NewFile(dir)
	require.NoError(t, err)

	_, found, err := backend.Get(ctx, "planchat_rooms")
	assert.NoError(t, err)
	assert.False(t, found, "fresh directory should hold no document")

	require.NoError(t, backend.Set(ctx, "planchat_rooms", []byte(`[{"id":"r1"}]`)))

	// A second backend over the same directory sees the write.
	reopened, err := NewFile(dir)
	require.NoError(t, err)
	got, found, err := reopened.Get(ctx, "planchat_rooms")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`[{"id":"r1"}]`), got)
}

func TestFileBackendKeySanitized(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFile(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, backend.Set(ctx, "a/b", []byte("x")))
	got, found, err := backend.Get(ctx, "a/b")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("x"), got)
}
