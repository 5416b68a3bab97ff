package archive

import (
	"archive/zip"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/ah-its-andy/formatwave/internal/common"
	"github.com/ah-its-andy/formatwave/internal/session"
)

// Builder bundles a session's converted outputs into a single zip. The
// archive is written next to the session directory, not inside it, so
// rebuilding can never nest a previous archive; an existing archive for the
// same session is truncated and regenerated.
type Builder struct {
	fs    afero.Fs
	store *session.Store
}

func NewBuilder(store *session.Store) *Builder {
	return NewBuilderWithFS(afero.NewOsFs(), store)
}

func NewBuilderWithFS(fs afero.Fs, store *session.Store) *Builder {
	return &Builder{fs: fs, store: store}
}

// Build zips every regular file in the session's output directory (flat, no
// subdirectories) and returns the archive path.
func (b *Builder) Build(sessionID string) (string, error) {
	sess, err := b.store.Resolve(sessionID)
	if err != nil {
		return "", err
	}

	zipPath := filepath.Join(b.store.ConvertedRoot(), "FormatWave_"+sess.ID+".zip")
	f, err := b.fs.Create(zipPath)
	if err != nil {
		return "", common.WrapError(common.CodeArchiveError, err, "cannot create archive")
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	entries, err := afero.ReadDir(b.fs, sess.OutputDir)
	if err != nil {
		zw.Close()
		return "", common.WrapError(common.CodeArchiveError, err, "cannot read session directory")
	}
	for _, fi := range entries {
		if !fi.Mode().IsRegular() {
			continue
		}
		if err := b.addFile(zw, filepath.Join(sess.OutputDir, fi.Name()), fi.Name()); err != nil {
			zw.Close()
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		return "", common.WrapError(common.CodeArchiveError, err, "cannot finalize archive")
	}
	return zipPath, nil
}

func (b *Builder) addFile(zw *zip.Writer, path, name string) error {
	src, err := b.fs.Open(path)
	if err != nil {
		return common.WrapError(common.CodeArchiveError, err, "cannot read %s", name)
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return common.WrapError(common.CodeArchiveError, err, "cannot add %s", name)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return common.WrapError(common.CodeArchiveError, err, "cannot add %s", name)
	}
	return nil
}
