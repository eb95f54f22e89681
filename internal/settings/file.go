package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps one JSON document per device under a directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create settings directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(device string) (string, error) {
	if !ValidDevice(device) {
		return "", ErrInvalidDevice
	}
	return filepath.Join(f.dir, device+".json"), nil
}

func (f *FileStore) Load(_ context.Context, device string) (Settings, error) {
	p, err := f.path(device)
	if err != nil {
		return Settings{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s.normalized(), nil
}

func (f *FileStore) Save(_ context.Context, device string, s Settings) error {
	p, err := f.path(device)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(s.normalized(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
