package session

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ah-its-andy/formatwave/internal/common"
)

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := NewStoreWithFS(fs, "/data/uploads", "/data/converted")
	require.NoError(t, err)
	return store, fs
}

func TestCreateIsolatesSessions(t *testing.T) {
	store, fs := newTestStore(t)

	a, err := store.Create()
	require.NoError(t, err)
	b, err := store.Create()
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.UploadDir, b.UploadDir)
	assert.NotEqual(t, a.OutputDir, b.OutputDir)

	for _, dir := range []string{a.UploadDir, a.OutputDir, b.UploadDir, b.OutputDir} {
		ok, err := afero.DirExists(fs, dir)
		require.NoError(t, err)
		assert.True(t, ok, "missing %s", dir)
	}
}

func TestResolve(t *testing.T) {
	store, _ := newTestStore(t)

	sess, err := store.Create()
	require.NoError(t, err)

	got, err := store.Resolve(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess, got)
}

func TestResolveRejectsUnknownAndMalformed(t *testing.T) {
	store, _ := newTestStore(t)

	for _, id := range []string{
		"",
		"not-a-uuid",
		"../../etc",
		"0d5a4f6e-0000-4000-8000-000000000000", // well-formed but never created
	} {
		_, err := store.Resolve(id)
		require.Error(t, err, "id %q", id)
		assert.Equal(t, common.CodeSessionNotFound, common.CodeOf(err))
	}
}

func TestResolveOutputFile(t *testing.T) {
	store, fs := newTestStore(t)

	sess, err := store.Create()
	require.NoError(t, err)
	path := filepath.Join(sess.OutputDir, "out.png")
	require.NoError(t, afero.WriteFile(fs, path, []byte("png"), 0o644))

	got, err := store.ResolveOutputFile(sess.ID, "out.png")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	for _, name := range []string{"missing.png", "../secret", "a/b.png", "..", ""} {
		_, err := store.ResolveOutputFile(sess.ID, name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestSafeName(t *testing.T) {
	assert.True(t, SafeName("photo.png"))
	assert.True(t, SafeName("doc_page_001.png"))

	assert.False(t, SafeName(""))
	assert.False(t, SafeName("."))
	assert.False(t, SafeName(".."))
	assert.False(t, SafeName("a/b"))
	assert.False(t, SafeName(`a\b`))
	assert.False(t, SafeName("../escape"))
}
