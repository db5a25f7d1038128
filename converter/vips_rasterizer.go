//go:build vips

package converter

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

var vipsOnce sync.Once

func init() {
	RegisterRasterizer("vips", func() (VectorRasterizer, error) {
		return NewVipsRasterizer(), nil
	})
}

// VipsRasterizer loads SVG through libvips (librsvg underneath).
type VipsRasterizer struct{}

func NewVipsRasterizer() *VipsRasterizer {
	vipsOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelError)
		vips.Startup(nil)
	})
	return &VipsRasterizer{}
}

func (r *VipsRasterizer) Rasterize(ctx context.Context, document []byte) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref, err := vips.NewImageFromBuffer(document)
	if err != nil {
		return nil, fmt.Errorf("vips load: %w", err)
	}
	defer ref.Close()

	img, err := ref.ToImage(vips.NewDefaultPNGExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export: %w", err)
	}
	return img, nil
}
