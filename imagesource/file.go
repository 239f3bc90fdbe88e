package imagesource

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
)

// sniffLen is the number of leading bytes inspected to detect the format.
const sniffLen = 262

// File is an image stored on disk. EXIF orientation is applied.
type File struct {
	Path string
}

// NewFile returns a File for path, accepting "file://" URLs.
func NewFile(path string) File {
	return File{Path: filepath.Clean(strings.TrimPrefix(path, "file://"))}
}

// ID returns the file path.
func (f File) ID() string { return f.Path }

// Decode reads and decodes the file.
func (f File) Decode(ctx context.Context) (Pixels, error) {
	if err := ctx.Err(); err != nil {
		return Pixels{}, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return Pixels{}, fmt.Errorf("imagesource: read %s: %w", f.Path, err)
	}
	return decodeBytes(f.Path, data)
}

// decodeBytes sniffs data and decodes it into straight-alpha pixels.
func decodeBytes(name string, data []byte) (Pixels, error) {
	head := data[:min(len(data), sniffLen)]
	if !filetype.IsImage(head) {
		kind, _ := filetype.Match(head)
		return Pixels{}, fmt.Errorf("%w: %s (%s)", ErrNotImage, name, kind.MIME.Value)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Pixels{}, fmt.Errorf("imagesource: decode %s: %w", name, err)
	}
	px, err := FromImage(img)
	if err != nil {
		return Pixels{}, fmt.Errorf("imagesource: %s: %w", name, err)
	}
	return px, nil
}
