package storage

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

func newTestTier(t *testing.T) (Tier, string) {
	t.Helper()
	root := t.TempDir()
	tier, err := NewLocal("public", root, "/media")
	require.NoError(t, err)
	return tier, root
}

func TestLocalTier_SaveAndOpen(t *testing.T) {
	tier, root := newTestTier(t)
	ctx := context.Background()

	actual, err := tier.Save(ctx, "files/test.txt", strings.NewReader("hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, "files/test.txt", actual)

	rc, err := tier.Open(ctx, actual)
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Join(root, "files"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalTier_SaveCollision(t *testing.T) {
	tier, _ := newTestTier(t)
	ctx := context.Background()

	first, err := tier.Save(ctx, "files/test.txt", strings.NewReader("one"), 3)
	require.NoError(t, err)
	second, err := tier.Save(ctx, "files/test.txt", strings.NewReader("two"), 3)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(second, "files/test_"))
	assert.True(t, strings.HasSuffix(second, ".txt"))

	// the original blob is untouched
	rc, err := tier.Open(ctx, first)
	require.NoError(t, err)
	defer rc.Close()
	content, _ := io.ReadAll(rc)
	assert.Equal(t, "one", string(content))
}

func TestLocalTier_OpenMissing(t *testing.T) {
	tier, _ := newTestTier(t)

	_, err := tier.Open(context.Background(), "files/nope.txt")

	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalTier_Delete(t *testing.T) {
	tier, _ := newTestTier(t)
	ctx := context.Background()

	actual, err := tier.Save(ctx, "files/test.txt", strings.NewReader("x"), 1)
	require.NoError(t, err)

	require.NoError(t, tier.Delete(ctx, actual))

	exists, err := tier.Exists(ctx, actual)
	require.NoError(t, err)
	assert.False(t, exists)

	// deleting a missing blob is not an error
	assert.NoError(t, tier.Delete(ctx, actual))
}

func TestLocalTier_ExistsAndSize(t *testing.T) {
	tier, _ := newTestTier(t)
	ctx := context.Background()

	exists, err := tier.Exists(ctx, "files/test.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = tier.Save(ctx, "files/test.txt", strings.NewReader("hello"), 5)
	require.NoError(t, err)

	exists, err = tier.Exists(ctx, "files/test.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	size, err := tier.Size(ctx, "files/test.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	_, err = tier.Size(ctx, "files/other.txt")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalTier_URLAndAbsolutePath(t *testing.T) {
	tier, root := newTestTier(t)

	assert.Equal(t, "/media/files/test.txt", tier.URL("files/test.txt"))
	assert.Equal(t, filepath.Join(root, "files", "test.txt"), tier.AbsolutePath("files/test.txt"))

	noURL, err := NewLocal("private", t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, "", noURL.URL("files/test.txt"))
}
