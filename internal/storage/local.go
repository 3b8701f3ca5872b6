package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrBadFilename is returned for names that are not plain file tokens.
var ErrBadFilename = errors.New("invalid filename")

var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

const maxBaseLen = 100

// Local stores downloaded files in a single flat directory.
type Local struct {
	basePath string
}

// NewLocal creates the storage directory if needed.
func NewLocal(basePath string) (*Local, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Local{basePath: basePath}, nil
}

// BasePath returns the storage directory.
func (l *Local) BasePath() string {
	return l.basePath
}

// SanitizeFilename builds a safe file name from a video title.
func SanitizeFilename(title, suffix, ext string) string {
	base := unsafeChars.ReplaceAllString(title, "_")
	base = strings.TrimSpace(base)
	base = strings.ReplaceAll(base, " ", "_")
	if base == "" {
		base = "video"
	}
	if len(base) > maxBaseLen {
		base = base[:maxBaseLen]
	}
	if suffix != "" {
		base = base + "_" + suffix
	}
	return base + "." + strings.TrimPrefix(ext, ".")
}

// Path resolves a client-supplied filename inside the storage directory.
// The name is treated as an opaque token: anything that looks like a path
// is rejected.
func (l *Local) Path(filename string) (string, error) {
	if filename == "" ||
		strings.ContainsAny(filename, "/\\") ||
		strings.Contains(filename, "..") ||
		filename != filepath.Base(filename) {
		return "", ErrBadFilename
	}
	return filepath.Join(l.basePath, filename), nil
}

// Stat returns file info for a stored file.
func (l *Local) Stat(filename string) (os.FileInfo, error) {
	path, err := l.Path(filename)
	if err != nil {
		return nil, err
	}
	return os.Stat(path)
}

// Remove deletes a stored file. Missing files are not an error.
func (l *Local) Remove(filename string) error {
	path, err := l.Path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// FileEntry describes one stored file.
type FileEntry struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified int64  `json:"modified"`
}

// List returns all stored files.
func (l *Local) List() ([]FileEntry, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, err
	}

	files := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileEntry{
			Name:     e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().Unix(),
		})
	}
	return files, nil
}

// StartCleanup runs a periodic disk sweep until ctx is done. It catches
// files that outlived their task records, e.g. after a process restart
// emptied the in-memory store.
func (l *Local) StartCleanup(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := l.CleanupOlderThan(maxAge)
				if err != nil {
					log.Printf("[STORAGE] Cleanup failed: %v", err)
				} else if removed > 0 {
					log.Printf("[STORAGE] Removed %d expired files", removed)
				}
			}
		}
	}()
}

// CleanupOlderThan removes stored files whose modification time is older
// than maxAge. Returns the number of removed files.
func (l *Local) CleanupOlderThan(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(filepath.Join(l.basePath, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
