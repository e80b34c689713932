package source

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path"
	"sync"

	_ "golang.org/x/image/webp"
)

// Files reads numbered frame images from a file system.
type Files struct {
	fsys   fs.FS
	dir    string
	prefix string

	mu     sync.RWMutex
	format string
}

// NewFiles reads frames named by FrameName from dir inside fsys.
func NewFiles(fsys fs.FS, dir, prefix, format string) *Files {
	if dir == "" {
		dir = "."
	}
	return &Files{fsys: fsys, dir: dir, prefix: prefix, format: format}
}

// NewDir reads frames from a directory on disk.
func NewDir(dir, prefix, format string) *Files {
	if dir == "" {
		dir = "."
	}
	return NewFiles(os.DirFS(dir), ".", prefix, format)
}

func (f *Files) SetFormat(format string) {
	f.mu.Lock()
	f.format = format
	f.mu.Unlock()
}

func (f *Files) Format() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.format
}

// Name is the path of frame index inside the file system.
func (f *Files) Name(index int) string {
	return path.Join(f.dir, FrameName(f.prefix, index, f.Format()))
}

// Exists reports whether the file for frame index is present.
func (f *Files) Exists(index int) bool {
	if index < 0 {
		return false
	}
	_, err := fs.Stat(f.fsys, f.Name(index))
	return err == nil
}

func (f *Files) Load(ctx context.Context, index int) (image.Image, error) {
	if index < 0 {
		return nil, fmt.Errorf("frame %d: %w", index, ErrOutOfRange)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := f.Name(index)
	r, err := f.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return img, nil
}
