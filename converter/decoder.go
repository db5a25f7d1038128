package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/tiff"

	"iconresizer/contracts"
	"iconresizer/utils"
)

type PixelBuffer = contracts.PixelBuffer
type SourceImage = contracts.SourceImage
type SourceInfo = contracts.SourceInfo

// CheckFormat rejects sources whose declared mime type cannot be decoded.
func CheckFormat(src SourceImage) error {
	if !contracts.IsAcceptedMime(src.MimeType) {
		return &contracts.UnsupportedFormatError{MimeType: src.MimeType}
	}
	if src.Kind == contracts.Vector && !contracts.IsVectorMime(src.MimeType) {
		return &contracts.UnsupportedFormatError{MimeType: src.MimeType}
	}
	return nil
}

// Decode turns src into a pixel buffer with its natural size. Vector sources
// go through rasterizer first.
func Decode(ctx context.Context, src SourceImage, rasterizer VectorRasterizer) (*PixelBuffer, SourceInfo, error) {
	if err := CheckFormat(src); err != nil {
		return nil, SourceInfo{}, err
	}

	info := SourceInfo{MimeType: src.MimeType, DPIX: utils.DefaultDPI, DPIY: utils.DefaultDPI}

	var img image.Image
	var err error
	switch {
	case contracts.IsVectorMime(src.MimeType):
		if rasterizer == nil {
			rasterizer = NewSVGRasterizer()
		}
		img, err = rasterizer.Rasterize(ctx, src.Data)
	case contracts.IsTIFFMime(src.MimeType):
		img, err = tiff.Decode(bytes.NewReader(src.Data))
		if err == nil {
			// missing resolution tags are not a decode failure
			info.DPIX, info.DPIY, _ = utils.GetTIFFDPI(src.Data)
		}
	default:
		img, err = png.Decode(bytes.NewReader(src.Data))
		if err == nil {
			info.DPIX, info.DPIY, _ = utils.GetDPIfromPNG(src.Data)
		}
	}
	if err != nil {
		return nil, SourceInfo{}, &contracts.DecodeError{MimeType: src.MimeType, Err: err}
	}

	buf := contracts.PixelBufferFromImage(img)
	if err := buf.Validate(); err != nil {
		return nil, SourceInfo{}, &contracts.DecodeError{
			MimeType: src.MimeType,
			Err:      fmt.Errorf("empty image: %w", err),
		}
	}

	info.Width = buf.Width
	info.Height = buf.Height
	return buf, info, nil
}
