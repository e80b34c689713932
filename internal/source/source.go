// Package source loads the still images of a frame sequence.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

var ErrOutOfRange = errors.New("frame index out of range")

// Source decodes frame index of a sequence. Load is called from several
// goroutines at once and must be safe for that.
type Source interface {
	Load(ctx context.Context, index int) (image.Image, error)
}

// Reformatter is implemented by sources whose file format can be switched
// after a failed format probe.
type Reformatter interface {
	SetFormat(format string)
}

// FrameName returns the file name of frame index: the prefix, index+1
// padded to three digits and the format as extension.
func FrameName(prefix string, index int, format string) string {
	return fmt.Sprintf("%s%03d.%s", prefix, index+1, format)
}

// FramePath prepends dir to FrameName. dir is used as given when it ends
// with a slash, like the image path of a page.
func FramePath(dir, prefix string, index int, format string) string {
	name := FrameName(prefix, index, format)
	if dir == "" || strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}
