// Package filesystem implements tenant file storage on top of afero.
package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/acoshift/neppage/internal/boundaries/out"
	"github.com/acoshift/neppage/internal/domain"
	"github.com/acoshift/neppage/internal/logging"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// PageStore keeps every tenant's files under <root>/<pageName>.
type PageStore struct {
	fs   afero.Fs
	root string
	log  zerolog.Logger
}

// NewPageStore creates the pages root if needed.
func NewPageStore(fs afero.Fs, root string, log zerolog.Logger) (*PageStore, error) {
	if root == "" {
		return nil, fmt.Errorf("pages root is required")
	}
	root = filepath.Clean(root)
	if err := fs.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create pages root %s: %w", root, err)
	}

	log.Info().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "filesystem").
		Str("root_dir", root).
		Msg("page storage initialized")

	return &PageStore{fs: fs, root: root, log: log}, nil
}

// Root returns the pages root directory.
func (s *PageStore) Root() string {
	return s.root
}

// WriteFile stores data at <root>/<pageName>/<dir>/<name>, creating
// intermediate directories.
func (s *PageStore) WriteFile(pageName, dir, name string, data []byte) error {
	_, target, err := s.resolve(pageName, dir, name)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return fmt.Errorf("failed to create page directory: %w", err)
	}

	if err := s.replace(target, data); err != nil {
		return err
	}

	s.log.Debug().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "filesystem").
		Str(logging.FieldPage, pageName).
		Str(logging.FieldPath, target).
		Int("size", len(data)).
		Msg("file written")

	return nil
}

// replace writes data to a uniquely named sibling of target and renames it
// over target, so concurrent writers never share a temporary file.
func (s *PageStore) replace(target string, data []byte) error {
	tmp, err := afero.TempFile(s.fs, filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = s.fs.Chmod(tmpPath, filePerm)
	}
	if err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := s.fs.Rename(tmpPath, target); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// RemoveFile deletes <root>/<pageName>/<dir>/<name>. A missing file is not
// an error. The containing directory is removed when it is left empty,
// unless it is the page directory itself.
func (s *PageStore) RemoveFile(pageName, dir, name string) error {
	pageRoot, target, err := s.resolve(pageName, dir, name)
	if err != nil {
		return err
	}

	if err := s.fs.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}

	parent := filepath.Dir(target)
	if parent != pageRoot {
		if empty, err := afero.IsEmpty(s.fs, parent); err == nil && empty {
			_ = s.fs.Remove(parent)
		}
	}

	s.log.Debug().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "filesystem").
		Str(logging.FieldPage, pageName).
		Str(logging.FieldPath, target).
		Msg("file removed")

	return nil
}

// resolve maps a tenant file to its location. No filesystem call happens
// before the location is known to be strictly inside the page directory.
func (s *PageStore) resolve(pageName, dir, name string) (string, string, error) {
	if !domain.ValidSegment(pageName) {
		return "", "", fmt.Errorf("%w: page %q", domain.ErrPathEscape, pageName)
	}
	if !domain.ValidSegment(name) {
		return "", "", fmt.Errorf("%w: name %q", domain.ErrPathEscape, name)
	}

	pageRoot := filepath.Join(s.root, pageName)
	target := filepath.Join(pageRoot, filepath.FromSlash(dir), name)

	rel, err := filepath.Rel(pageRoot, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%w: %s", domain.ErrPathEscape, filepath.Join(dir, name))
	}
	return pageRoot, target, nil
}

var _ out.PageFiles = (*PageStore)(nil)
