package scene

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrEmptyModel = errors.New("model file is empty")

// FileLoader resolves model paths under Root and checks that they exist.
type FileLoader struct {
	Root string
}

func (l FileLoader) Load(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := filepath.Join(l.Root, filepath.FromSlash(path))
	info, err := os.Stat(full)
	if err != nil {
		return fmt.Errorf("failed to load model %s: %w", path, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("failed to load model %s: %w", path, ErrEmptyModel)
	}
	return nil
}
