package envreg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	recordExt = ".json"
	dirPerm   = 0o700
	filePerm  = 0o600
)

// FileStore keeps one JSON record per Module under a private root directory:
//
//	<root>/<ModuleName>.json  {"name": "...", "value": "...", "alias": "..."}
//
// Writes replace the whole record atomically.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: filepath.Clean(root)}
}

// DefaultRoot returns the per-user cache directory reserved for app's overrides.
func DefaultRoot(app string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache dir: %w", err)
	}
	return filepath.Join(base, app, "envreg"), nil
}

// Root returns the storage root.
func (s *FileStore) Root() string { return s.root }

// Path returns the record file for m.
func (s *FileStore) Path(m *Module) string {
	return filepath.Join(s.root, m.Name()+recordExt)
}

// persisted mirrors record with presence tracking so that partial files are
// rejected. Unknown keys are rejected by the decoder.
type persisted struct {
	Name  *string `json:"name"`
	Value *string `json:"value"`
	Alias *string `json:"alias"`
}

func (s *FileStore) Read(m *Module) (*Environment, error) {
	path := s.Path(m)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var p persisted
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if p.Name == nil || p.Value == nil || p.Alias == nil {
		return nil, fmt.Errorf("decoding %s: record must carry name, value and alias", path)
	}

	return record{Name: *p.Name, Value: *p.Value, Alias: *p.Alias}.link(m), nil
}

func (s *FileStore) Write(env *Environment) error {
	if env.Module() == nil {
		return fmt.Errorf("writing %s: environment has no module", env.Name())
	}

	data, err := json.Marshal(recordOf(env))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", s.root, err)
	}
	return writeFileAtomic(s.Path(env.Module()), data, filePerm)
}

func (s *FileStore) Delete(m *Module) error {
	err := removeFile(s.Path(m))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear deletes every regular entry directly under the root. Subdirectories are
// left untouched. A missing root is already clear.
func (s *FileStore) Clear() error {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("listing %s: %w", s.root, err)
	}

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.root, entry.Name())
		if err := removeFile(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation hooks, overridden in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// writeFileAtomic writes to a temporary file in the target directory and renames
// it over targetPath, so readers never observe a partial record.
func writeFileAtomic(targetPath string, data []byte, perm os.FileMode) (err error) {
	tmpFile, err := createTempFile(filepath.Dir(targetPath), filepath.Base(targetPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if err != nil {
			_ = removeFile(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err = tmpFile.Close(); err != nil {
		return err
	}
	if err = chmodFile(tmpPath, perm); err != nil {
		return err
	}
	return renameFile(tmpPath, targetPath)
}
