package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// FileStore keeps the session in a single file, optionally encrypted.
type FileStore struct {
	path string
	enc  ems.Encryptor
}

var _ ems.SessionStore = (*FileStore)(nil)

// NewFileStore stores the session at path. enc may be nil for plaintext.
func NewFileStore(path string, enc ems.Encryptor) *FileStore {
	return &FileStore{path: path, enc: enc}
}

func (f *FileStore) Load() (*ems.Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	return decode(data, f.enc)
}

// Save writes to a temporary file and renames it over the old one so a
// crash never leaves a half-written session behind.
func (f *FileStore) Save(s *ems.Session) error {
	data, err := encode(s, f.enc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", f.path, err)
	}
	return nil
}

// Path returns the file backing the store.
func (f *FileStore) Path() string {
	return f.path
}
