// Package qr renders payment URLs as scannable PNG images.
package qr

import (
	"fmt"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// FileRenderer writes QR code PNGs into a directory on local disk,
// one file per memo.
type FileRenderer struct {
	dir string
}

// NewFileRenderer ensures dir exists and returns a renderer writing into it.
func NewFileRenderer(dir string) (*FileRenderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("qr: create output dir: %w", err)
	}
	return &FileRenderer{dir: dir}, nil
}

// Render encodes content as a PNG named after memo and returns the file path.
func (r *FileRenderer) Render(content, memo string) (string, error) {
	path := filepath.Join(r.dir, memo+".png")
	if err := qrcode.WriteFile(content, qrcode.Medium, qrImageSize, path); err != nil {
		return "", fmt.Errorf("qr: write %s: %w", path, err)
	}
	return path, nil
}
