package persist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	_, found, err := s.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetItem(ctx, "k", []byte("v")))
	data, found, err := s.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), data)

	require.NoError(t, s.RemoveItem(ctx, "k"))
	_, found, err = s.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// Removing a missing key is not an error.
	require.NoError(t, s.RemoveItem(ctx, "missing"))
}

func TestFileStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "records")
	s := NewFileStorage(dir)

	_, found, err := s.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetItem(ctx, "k", []byte(`{"state":{},"version":1}`)))
	data, found, err := s.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`{"state":{},"version":1}`), data)

	require.NoError(t, s.RemoveItem(ctx, "k"))
	_, found, err = s.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.RemoveItem(ctx, "k"))
}

func TestFileStorage_RejectsPathKeys(t *testing.T) {
	ctx := context.Background()
	s := NewFileStorage(t.TempDir())

	assert.Error(t, s.SetItem(ctx, "", []byte("x")))
	assert.Error(t, s.SetItem(ctx, "../escape", []byte("x")))
	_, _, err := s.GetItem(ctx, "a/b")
	assert.Error(t, err)
}
