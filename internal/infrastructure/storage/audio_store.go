package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

// ErrInvalidAudioPath rejects paths that escape the audio root.
var ErrInvalidAudioPath = errors.New("invalid audio path")

// DiskAudioStore keeps narrations under root/{run}/{file}.mp3.
type DiskAudioStore struct {
	root string
}

var _ ports.AudioStore = (*DiskAudioStore)(nil)

// NewDiskAudioStore creates the root directory if needed.
func NewDiskAudioStore(root string) (*DiskAudioStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &DiskAudioStore{root: root}, nil
}

// Save writes atomically via a temp file so readers never see partial audio.
func (s *DiskAudioStore) Save(_ context.Context, key domain.AudioKey, audio []byte) (string, error) {
	full, err := s.resolve(key.Path())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".narration-*")
	if err != nil {
		return "", fmt.Errorf("create temp audio: %w", err)
	}
	if _, err := tmp.Write(audio); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close audio: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("publish audio: %w", err)
	}

	return full, nil
}

// Open returns a stored artifact by its run-relative path.
func (s *DiskAudioStore) Open(relPath string) (io.ReadCloser, error) {
	full, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	return f, nil
}

// Sweep removes run directories whose newest file is older than the cutoff.
func (s *DiskAudioStore) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("read audio dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, entry.Name())
		newest, err := newestModTime(dir)
		if err != nil {
			return removed, err
		}
		if newest.After(olderThan) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return removed, fmt.Errorf("remove %s: %w", dir, err)
		}
		removed++
	}
	return removed, nil
}

func newestModTime(dir string) (time.Time, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", dir, err)
	}
	newest := info.ModTime()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}, fmt.Errorf("read %s: %w", dir, err)
	}
	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			continue
		}
		if fi.ModTime().After(newest) {
			newest = fi.ModTime()
		}
	}
	return newest, nil
}

func (s *DiskAudioStore) resolve(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidAudioPath, relPath)
	}
	return filepath.Join(s.root, clean), nil
}
