package converter

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/tiff"

	"iconresizer/contracts"
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.NRGBA{R: 200, G: 10, B: 10, A: 255}
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func tiffBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode tiff: %v", err)
	}
	return buf.Bytes()
}

func pngSource(t *testing.T, img image.Image) contracts.SourceImage {
	t.Helper()
	return contracts.NewRasterSource("test.png", contracts.MimePNG, pngBytes(t, img))
}

func bufferOf(img *image.NRGBA) *PixelBuffer {
	return contracts.PixelBufferFromImage(img)
}

// countingRasterizer records calls and delegates to the oksvg backend.
type countingRasterizer struct {
	calls int
}

func (c *countingRasterizer) Rasterize(ctx context.Context, document []byte) (image.Image, error) {
	c.calls++
	return NewSVGRasterizer().Rasterize(ctx, document)
}
