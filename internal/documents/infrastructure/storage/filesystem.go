package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	documents "billing-docs/internal/documents/domain"
)

// Dir is a local uploads directory. It serves stored templates and receives
// generated documents.
type Dir struct {
	root string
}

// NewDir opens (and creates if needed) an uploads directory.
func NewDir(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage: empty uploads dir")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create uploads dir: %w", err)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute directory path.
func (d *Dir) Root() string {
	return d.root
}

// Path resolves a bare file name inside the directory.
func (d *Dir) Path(name string) (string, error) {
	clean := filepath.Base(filepath.Clean("/" + name))
	if clean == "/" || clean == "." || clean != name {
		return "", fmt.Errorf("storage: invalid file name %q", name)
	}
	return filepath.Join(d.root, clean), nil
}

// Open reads a stored template.
func (d *Dir) Open(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := d.Path(name)
	if err != nil {
		return nil, documents.NewNotFound("template", name)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, documents.NewNotFound("template", name)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read template: %w", err)
	}
	return data, nil
}

// WriteFile stores data under name. Readers never observe a partial file.
func (d *Dir) WriteFile(name string, data []byte) (string, error) {
	path, err := d.Path(name)
	if err != nil {
		return "", err
	}
	tmp := filepath.Join(d.root, "."+name+"."+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	}
	return path, nil
}
