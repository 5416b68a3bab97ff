package cleanup

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Sweeper periodically reclaims expired session directories (and stale
// archives) from the upload and converted roots. A session still being read
// by an in-flight download can in principle expire mid-request; with the
// default one hour retention against sub-second requests this race is
// accepted rather than guarded with leases.
type Sweeper struct {
	fs       afero.Fs
	roots    []string
	maxAge   time.Duration
	interval time.Duration
	log      *zap.SugaredLogger
}

func NewSweeper(roots []string, maxAge, interval time.Duration, log *zap.SugaredLogger) *Sweeper {
	return NewSweeperWithFS(afero.NewOsFs(), roots, maxAge, interval, log)
}

func NewSweeperWithFS(fs afero.Fs, roots []string, maxAge, interval time.Duration, log *zap.SugaredLogger) *Sweeper {
	return &Sweeper{fs: fs, roots: roots, maxAge: maxAge, interval: interval, log: log}
}

// Run sweeps on a fixed interval until ctx is cancelled. Individual entry
// failures never stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Infow("cleanup sweeper started", "interval", s.interval, "max_age", s.maxAge)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("cleanup sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(time.Now())
		}
	}
}

// SweepOnce removes every top-level entry of each root whose last-modified
// time is older than the retention threshold. Each entry is attempted
// independently; errors are logged and swallowed.
func (s *Sweeper) SweepOnce(now time.Time) {
	for _, root := range s.roots {
		entries, err := afero.ReadDir(s.fs, root)
		if err != nil {
			s.log.Warnw("cleanup: cannot read root", "root", root, "error", err)
			continue
		}
		for _, fi := range entries {
			if now.Sub(fi.ModTime()) <= s.maxAge {
				continue
			}
			path := filepath.Join(root, fi.Name())
			if err := s.fs.RemoveAll(path); err != nil {
				s.log.Warnw("cleanup: cannot remove entry", "path", path, "error", err)
				continue
			}
			s.log.Infow("cleanup: removed expired entry", "path", path)
		}
	}
}
