package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweepOnceRemovesOnlyExpired(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := time.Now()

	require.NoError(t, fs.MkdirAll("/uploads/old-session", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/uploads/old-session/f.bmp", []byte("x"), 0o644))
	require.NoError(t, fs.MkdirAll("/uploads/new-session", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/converted/stale.zip", []byte("x"), 0o644))

	require.NoError(t, fs.Chtimes("/uploads/old-session", now, now.Add(-2*time.Hour)))
	require.NoError(t, fs.Chtimes("/uploads/new-session", now, now.Add(-time.Minute)))
	require.NoError(t, fs.Chtimes("/converted/stale.zip", now, now.Add(-2*time.Hour)))

	s := NewSweeperWithFS(fs, []string{"/uploads", "/converted"}, time.Hour, time.Minute, zap.NewNop().Sugar())
	s.SweepOnce(now)

	ok, _ := afero.DirExists(fs, "/uploads/old-session")
	assert.False(t, ok, "expired session should be removed")
	ok, _ = afero.DirExists(fs, "/uploads/new-session")
	assert.True(t, ok, "fresh session should survive")
	ok, _ = afero.Exists(fs, "/converted/stale.zip")
	assert.False(t, ok, "expired top-level archive should be removed")
}

func TestSweepOnceToleratesMissingRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/converted/gone", 0o755))
	require.NoError(t, fs.Chtimes("/converted/gone", time.Now(), time.Now().Add(-2*time.Hour)))

	s := NewSweeperWithFS(fs, []string{"/does-not-exist", "/converted"}, time.Hour, time.Minute, zap.NewNop().Sugar())
	s.SweepOnce(time.Now())

	// The unreadable root is skipped and the remaining root still swept.
	ok, _ := afero.DirExists(fs, "/converted/gone")
	assert.False(t, ok)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/uploads", 0o755))

	s := NewSweeperWithFS(fs, []string{"/uploads"}, time.Hour, 10*time.Millisecond, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
