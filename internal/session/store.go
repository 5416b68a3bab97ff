package session

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/ah-its-andy/formatwave/internal/common"
)

// Session is the unit of isolation for one batch request: a pair of
// directories owned exclusively by that batch.
type Session struct {
	ID        string
	UploadDir string
	OutputDir string
}

// Store creates and resolves sessions under two filesystem roots, one for
// uploads and one for converted outputs.
type Store struct {
	fs            afero.Fs
	uploadRoot    string
	convertedRoot string
}

func NewStore(uploadRoot, convertedRoot string) (*Store, error) {
	return NewStoreWithFS(afero.NewOsFs(), uploadRoot, convertedRoot)
}

func NewStoreWithFS(fs afero.Fs, uploadRoot, convertedRoot string) (*Store, error) {
	for _, root := range []string{uploadRoot, convertedRoot} {
		if err := fs.MkdirAll(root, 0o755); err != nil {
			return nil, err
		}
	}
	return &Store{fs: fs, uploadRoot: uploadRoot, convertedRoot: convertedRoot}, nil
}

func (s *Store) UploadRoot() string    { return s.uploadRoot }
func (s *Store) ConvertedRoot() string { return s.convertedRoot }

// Create generates a fresh high-entropy session id and makes its directory
// pair.
func (s *Store) Create() (Session, error) {
	id := uuid.NewString()
	sess := Session{
		ID:        id,
		UploadDir: filepath.Join(s.uploadRoot, id),
		OutputDir: filepath.Join(s.convertedRoot, id),
	}
	for _, dir := range []string{sess.UploadDir, sess.OutputDir} {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return Session{}, err
		}
	}
	return sess, nil
}

// Resolve maps an identifier back to its session, refusing ids that are not
// well-formed or have no output directory on disk. Validating the id shape
// before any filesystem access is what keeps traversal sequences out.
func (s *Store) Resolve(id string) (Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Session{}, common.NewError(common.CodeSessionNotFound, "session not found")
	}
	sess := Session{
		ID:        id,
		UploadDir: filepath.Join(s.uploadRoot, id),
		OutputDir: filepath.Join(s.convertedRoot, id),
	}
	if ok, err := afero.DirExists(s.fs, sess.OutputDir); err != nil || !ok {
		return Session{}, common.NewError(common.CodeSessionNotFound, "session not found")
	}
	return sess, nil
}

// ResolveOutputFile returns the path of a named file in the session's output
// directory after validating both components.
func (s *Store) ResolveOutputFile(id, name string) (string, error) {
	sess, err := s.Resolve(id)
	if err != nil {
		return "", err
	}
	if !SafeName(name) {
		return "", common.NewError(common.CodeSessionNotFound, "file not found")
	}
	path := filepath.Join(sess.OutputDir, name)
	if ok, err := afero.Exists(s.fs, path); err != nil || !ok {
		return "", common.NewError(common.CodeSessionNotFound, "file not found")
	}
	return path, nil
}

// SafeName reports whether name is a plain file name with no directory
// components or escape sequences.
func SafeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return name == filepath.Base(name)
}
