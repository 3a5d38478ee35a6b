package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Storage holds media binaries addressed by slash-separated keys such as
// "2024/08/hqdefault.jpg".
type Storage interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// LocalStorage writes files below a root upload directory.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

func (l *LocalStorage) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

func (l *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(l.path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l *LocalStorage) Put(_ context.Context, key string, data []byte, _ string) error {
	p := l.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
