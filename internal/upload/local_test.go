package upload

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "nested", "uploads")

	store, err := NewLocalStore(root, "uploads")
	require.NoError(t, err)
	assert.DirExists(t, root)

	// creating the store twice over the same root is fine
	_, err = NewLocalStore(root, "uploads")
	require.NoError(t, err)

	ref, err := store.Save(ctx, "front.jpg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "uploads/"))
	assert.True(t, strings.HasSuffix(ref, "-front.jpg"))

	path := filepath.Join(root, strings.TrimPrefix(ref, "uploads/"))
	assert.FileExists(t, path)

	rc, err := store.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "jpeg bytes", string(data))

	require.NoError(t, store.Delete(ctx, ref))
	assert.NoFileExists(t, path)

	// missing file is not an error
	require.NoError(t, store.Delete(ctx, ref))

	_, err = store.Open(ctx, ref)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "uploads/../../etc/passwd"), ErrInvalidReference)
}

func TestLocalStoreRecreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(root, "uploads")
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(root))

	_, err = store.Save(context.Background(), "a.png", strings.NewReader("x"))
	require.NoError(t, err)
	assert.DirExists(t, root)
}

func TestLocalStoreCanceledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Save(ctx, "a.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
