package converter

import (
	"bytes"
	"image/png"

	"iconresizer/contracts"
)

type EncodedImage = contracts.EncodedImage

var pngEncoder = png.Encoder{CompressionLevel: png.BestCompression}

// Encode writes buf as PNG. Pixels are written as they are; no keying or
// resampling happens here.
func Encode(buf *PixelBuffer, size TargetSize) (EncodedImage, error) {
	if err := buf.Validate(); err != nil {
		return EncodedImage{}, &contracts.EncodeError{Size: size, Err: err}
	}
	var out bytes.Buffer
	if err := pngEncoder.Encode(&out, buf.Image()); err != nil {
		return EncodedImage{}, &contracts.EncodeError{Size: size, Err: err}
	}
	return EncodedImage{
		Size:   size,
		Format: contracts.OutputFormat,
		Data:   out.Bytes(),
	}, nil
}
