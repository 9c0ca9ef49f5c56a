package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FSStorage кладёт файлы в локальный каталог
type FSStorage struct {
	root string
}

func NewFS(root string) (*FSStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to init upload dir: %w", err)
	}
	return &FSStorage{root: root}, nil
}

var _ Storage = (*FSStorage)(nil)

func (s *FSStorage) Store(_ context.Context, filename string, r io.Reader) (string, error) {
	name := objectName(filename)
	path := filepath.Join(s.root, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}
