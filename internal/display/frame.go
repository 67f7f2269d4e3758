package display

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/basel-ax/museframe/internal/domain"
)

// FrameDisplay renders images into a PNG frame file sized for the panel.
// A panel driver watching the file picks up every new frame.
type FrameDisplay struct {
	path   string
	width  int
	height int
	log    *zap.SugaredLogger
}

var _ domain.Display = (*FrameDisplay)(nil)

// NewFrameDisplay creates a display writing frames to path
func NewFrameDisplay(path string, width, height int, log *zap.SugaredLogger) *FrameDisplay {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &FrameDisplay{
		path:   path,
		width:  width,
		height: height,
		log:    log,
	}
}

// Resolution returns the frame size in pixels
func (d *FrameDisplay) Resolution() (int, int) {
	return d.width, d.height
}

// Show resizes the image to the panel resolution and writes the frame
func (d *FrameDisplay) Show(ctx context.Context, imagePath string) error {
	if imagePath == "" {
		d.log.Warn("no valid image found, skipping update")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	if dir := filepath.Dir(d.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create frame dir: %w", err)
		}
	}

	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move frame into place: %w", err)
	}

	d.log.Infow("display updated", "image", imagePath, "frame", d.path)

	return nil
}
