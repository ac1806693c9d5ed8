package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// FileStore implements Store with a single JSON file. The whole state is
// rewritten atomically on every mutation (temp file + rename), so a crash
// mid-write never corrupts stored credentials.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileState struct {
	Credentials Credentials   `json:"credentials"`
	User        *UserSnapshot `json:"user,omitempty"`
}

// NewFileStore creates a file-backed credential store at the given path.
// The parent directory must exist; the file is created on first write
// with 0600 permissions.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) Credentials(ctx context.Context) (Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, err := f.load()
	if err != nil {
		return Credentials{}, err
	}
	return state.Credentials, nil
}

func (f *FileStore) SetCredentials(ctx context.Context, creds Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, err := f.load()
	if err != nil {
		return err
	}
	state.Credentials = creds
	return f.save(state)
}

func (f *FileStore) CachedUser(ctx context.Context) (*UserSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, err := f.load()
	if err != nil {
		return nil, err
	}
	return state.User, nil
}

func (f *FileStore) SetCachedUser(ctx context.Context, user *UserSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, err := f.load()
	if err != nil {
		return err
	}
	state.User = user
	return f.save(state)
}

func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(&fileState{})
}

func (f *FileStore) load() (*fileState, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &fileState{}, nil
		}
		return nil, errors.Join(ErrStorageFailed, err)
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		// Unreadable state is treated as empty; the next login rewrites it.
		return &fileState{}, nil
	}
	return &state, nil
}

func (f *FileStore) save(state *fileState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".credstore-*")
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Join(ErrStorageFailed, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Join(ErrStorageFailed, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Join(ErrStorageFailed, err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}
