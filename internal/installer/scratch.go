package installer

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// scratch is a process-unique working directory that is removed when the
// install returns
type scratch struct {
	dir string
}

func newScratch() (*scratch, error) {
	dir, err := os.MkdirTemp("", "hassbox-store-")
	if err != nil {
		return nil, err
	}
	logrus.Debugf("Created scratch directory %s", dir)
	return &scratch{dir: dir}, nil
}

func (s *scratch) path(elem ...string) string {
	return filepath.Join(append([]string{s.dir}, elem...)...)
}

// Close removes the directory. Failures are logged only.
func (s *scratch) Close() {
	if err := os.RemoveAll(s.dir); err != nil {
		logrus.Warnf("Failed to remove scratch directory %s: %v", s.dir, err)
		return
	}
	logrus.Debugf("Removed scratch directory %s", s.dir)
}
