package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileSystemScanner implements Scanner interface for filesystem scanning
type FileSystemScanner struct{}

// NewFileSystemScanner creates a new filesystem scanner
func NewFileSystemScanner() *FileSystemScanner {
	return &FileSystemScanner{}
}

// Scan recursively lists a directory
func (s *FileSystemScanner) Scan(ctx context.Context, dir string) (*Tree, error) {
	var entries []Entry

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if path == dir {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		if !info.IsDir() && !info.Mode().IsRegular() {
			logrus.Debugf("Skipping non-regular file %s", rel)
			return nil
		}

		entries = append(entries, Entry{
			Path:  filepath.ToSlash(rel),
			IsDir: info.IsDir(),
			Size:  info.Size(),
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	logrus.Debugf("Found %d entries in %s", len(entries), dir)
	return NewTree(entries), nil
}
