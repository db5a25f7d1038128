package utils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

const (
	DefaultDPI       = 72.0
	DefaultTIFFDPI   = 300.0
	pngSignatureSize = 8
)

// GetTIFFDPI reads XResolution/YResolution from the TIFF's IFD0. The default is
// returned along with the error when the tags cannot be read.
func GetTIFFDPI(data []byte) (float64, float64, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return DefaultTIFFDPI, DefaultTIFFDPI, fmt.Errorf("EXIF not found: %w", err)
	}

	im := exifcommon.NewIfdMapping()
	ti := exif.NewTagIndex()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return DefaultTIFFDPI, DefaultTIFFDPI, err
	}

	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return DefaultTIFFDPI, DefaultTIFFDPI, err
	}

	dpiX, dpiY := DefaultTIFFDPI, DefaultTIFFDPI

	if v, ok := rationalTag(index, "XResolution"); ok {
		dpiX = v
	}
	if v, ok := rationalTag(index, "YResolution"); ok {
		dpiY = v
	}

	if tag, err := index.RootIfd.FindTagWithName("ResolutionUnit"); err == nil {
		if val, err := tag[0].Value(); err == nil {
			// 3 = centimetre
			if u, ok := val.([]uint16); ok && len(u) > 0 && u[0] == 3 {
				dpiX *= 2.54
				dpiY *= 2.54
			}
		}
	}

	return dpiX, dpiY, nil
}

func rationalTag(index exif.IfdIndex, name string) (float64, bool) {
	tag, err := index.RootIfd.FindTagWithName(name)
	if err != nil || len(tag) == 0 {
		return 0, false
	}
	val, err := tag[0].Value()
	if err != nil {
		return 0, false
	}
	rats, ok := val.([]exifcommon.Rational)
	if !ok || len(rats) == 0 || rats[0].Denominator == 0 {
		return 0, false
	}
	return float64(rats[0].Numerator) / float64(rats[0].Denominator), true
}

// GetDPIfromPNG walks the PNG chunks looking for pHYs. Files without it, or
// with an unknown unit, report DefaultDPI.
func GetDPIfromPNG(data []byte) (float64, float64, error) {
	const physChunk = "pHYs"
	if len(data) < pngSignatureSize {
		return DefaultDPI, DefaultDPI, fmt.Errorf("png too short: %d bytes", len(data))
	}
	buf := bytes.NewReader(data[pngSignatureSize:])

	for {
		var length uint32
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			break
		}

		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(buf, chunkType); err != nil {
			break
		}

		switch string(chunkType) {
		case physChunk:
			var pxPerUnitX, pxPerUnitY uint32
			var unit byte

			if err := binary.Read(buf, binary.BigEndian, &pxPerUnitX); err != nil {
				return DefaultDPI, DefaultDPI, err
			}
			if err := binary.Read(buf, binary.BigEndian, &pxPerUnitY); err != nil {
				return DefaultDPI, DefaultDPI, err
			}
			if err := binary.Read(buf, binary.BigEndian, &unit); err != nil {
				return DefaultDPI, DefaultDPI, err
			}

			// unit 1 = metre
			if unit == 1 {
				return float64(pxPerUnitX) * 0.0254, float64(pxPerUnitY) * 0.0254, nil
			}
			return DefaultDPI, DefaultDPI, nil
		case "IDAT", "IEND":
			// pHYs must precede the image data
			return DefaultDPI, DefaultDPI, nil
		}

		// skip chunk data + CRC
		if _, err := buf.Seek(int64(length)+4, io.SeekCurrent); err != nil {
			break
		}
	}

	return DefaultDPI, DefaultDPI, nil
}
