package infrastructure

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ScratchDir is where downloaded attachments live while being processed.
// Files are removed by the handler once a reply is sent; Sweep removes
// anything older than the TTL that a crash left behind.
type ScratchDir struct {
	Path   string
	TTL    time.Duration
	logger *slog.Logger
}

func NewScratchDir(dir string, ttl time.Duration, logger *slog.Logger) (*ScratchDir, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("scratch: empty dir")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("scratch: create %s: %w", abs, err)
	}
	fi, err := os.Lstat(abs)
	if err != nil {
		return nil, err
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("scratch: refusing symlink path: %s", abs)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("scratch: not a directory: %s", abs)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScratchDir{Path: abs, TTL: ttl, logger: logger.With("component", "scratch")}, nil
}

func (s *ScratchDir) Dir() string {
	return s.Path
}

// Remove deletes a scratch file, ignoring files that are already gone.
func (s *ScratchDir) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("remove scratch file failed", "path", path, "err", err)
	}
}

// Sweep removes regular files older than the TTL and returns how many it removed.
func (s *ScratchDir) Sweep(now time.Time) (int, error) {
	if s.TTL <= 0 {
		return 0, nil
	}
	removed := 0
	err := filepath.WalkDir(s.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&os.ModeSymlink != 0 {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() || now.Sub(info.ModTime()) <= s.TTL {
			return nil
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
		return nil
	})
	return removed, err
}

// RunJanitor sweeps every interval until ctx is done. Extra hooks run on each tick.
func (s *ScratchDir) RunJanitor(ctx context.Context, interval time.Duration, hooks ...func()) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := s.Sweep(now)
			if err != nil {
				s.logger.Warn("scratch sweep failed", "err", err)
			} else if n > 0 {
				s.logger.Info("scratch sweep", "removed", n)
			}
			for _, h := range hooks {
				h()
			}
		}
	}
}
