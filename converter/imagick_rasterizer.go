//go:build imagick

package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"gopkg.in/gographics/imagick.v2/imagick"
)

var imagickOnce sync.Once

func init() {
	RegisterRasterizer("imagick", func() (VectorRasterizer, error) {
		return NewImagickRasterizer(), nil
	})
}

// ImagickRasterizer renders SVG through ImageMagick's MagickWand API.
type ImagickRasterizer struct{}

func NewImagickRasterizer() *ImagickRasterizer {
	imagickOnce.Do(imagick.Initialize)
	return &ImagickRasterizer{}
}

func (r *ImagickRasterizer) Rasterize(ctx context.Context, document []byte) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	bg := imagick.NewPixelWand()
	defer bg.Destroy()
	bg.SetColor("none")
	if err := mw.SetBackgroundColor(bg); err != nil {
		return nil, fmt.Errorf("imagick background: %w", err)
	}

	if err := mw.ReadImageBlob(document); err != nil {
		return nil, fmt.Errorf("imagick read: %w", err)
	}
	if err := mw.SetImageFormat("PNG32"); err != nil {
		return nil, fmt.Errorf("imagick format: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(mw.GetImageBlob()))
	if err != nil {
		return nil, fmt.Errorf("imagick blob: %w", err)
	}
	return img, nil
}
