package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aRestless/staticip/pkg/registry"
	"github.com/moby/sys/atomicwriter"
	"github.com/sirupsen/logrus"
)

// Store persists the registry of one project between runs.
type Store interface {
	Load(ctx context.Context, project string) (*registry.Registry, error)
	Save(ctx context.Context, project string, reg *registry.Registry) error
}

// FileStore keeps one flat text file per project at base+project.
type FileStore struct {
	base string
	perm os.FileMode
	l    logrus.FieldLogger
}

func NewFileStore(base string, l logrus.FieldLogger) *FileStore {
	if l == nil {
		l = logrus.StandardLogger()
	}

	return &FileStore{
		base: base,
		perm: 0644,
		l:    l,
	}
}

func (s *FileStore) Path(project string) string {
	return s.base + project
}

// Load returns an empty registry when the project has no cache file yet.
func (s *FileStore) Load(_ context.Context, project string) (*registry.Registry, error) {
	path := s.Path(project)

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		s.l.WithField("path", path).Debug("no cache file, starting empty")
		return registry.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open cache file: %w", err)
	}
	defer f.Close()

	reg, skipped, err := ParseLines(f)
	if err != nil {
		return nil, fmt.Errorf("read cache file %s: %w", path, err)
	}

	if skipped > 0 {
		s.l.WithFields(logrus.Fields{
			"path":    path,
			"skipped": skipped,
		}).Warn("dropped malformed cache lines")
	}

	return reg, nil
}

// Save replaces the cache file in one step. If the write fails the previous
// content stays in place.
func (s *FileStore) Save(_ context.Context, project string, reg *registry.Registry) error {
	var buf bytes.Buffer
	if err := Format(&buf, reg); err != nil {
		return fmt.Errorf("format registry: %w", err)
	}

	path := s.Path(project)
	if err := atomicwriter.WriteFile(path, buf.Bytes(), s.perm); err != nil {
		return fmt.Errorf("write cache file %s: %w", path, err)
	}

	return nil
}
