package contracts

import "strings"

type SourceKind int

const (
	Raster SourceKind = iota
	Vector
)

func (k SourceKind) String() string {
	switch k {
	case Raster:
		return "raster"
	case Vector:
		return "vector"
	}
	return "unknown"
}

const (
	MimePNG  = "image/png"
	MimeTIFF = "image/tiff"
	MimeSVG  = "image/svg+xml"
)

// SourceImage is one captured input. Data is never modified after capture.
type SourceImage struct {
	Kind     SourceKind
	Data     []byte
	MimeType string
	Name     string
}

func NewRasterSource(name, mimeType string, data []byte) SourceImage {
	return SourceImage{Kind: Raster, Data: data, MimeType: mimeType, Name: name}
}

func NewVectorSource(name string, document []byte) SourceImage {
	return SourceImage{Kind: Vector, Data: document, MimeType: MimeSVG, Name: name}
}

// NewSource picks the kind from the mime type.
func NewSource(name, mimeType string, data []byte) SourceImage {
	if IsVectorMime(mimeType) {
		return NewVectorSource(name, data)
	}
	return NewRasterSource(name, mimeType, data)
}

// IsAcceptedMime reports whether mimeType can enter the pipeline. PNG is matched
// by prefix so parameters such as "image/png; foo=bar" pass.
func IsAcceptedMime(mimeType string) bool {
	return IsPNGMime(mimeType) || IsTIFFMime(mimeType) || IsVectorMime(mimeType)
}

func IsPNGMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimePNG)
}

func IsTIFFMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeTIFF)
}

func IsVectorMime(mimeType string) bool {
	return mimeType == MimeSVG
}
