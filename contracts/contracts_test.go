package contracts

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"
)

func TestPixelBufferValidate(t *testing.T) {
	if err := NewPixelBuffer(3, 2).Validate(); err != nil {
		t.Fatalf("valid buffer rejected: %v", err)
	}
	bad := []*PixelBuffer{
		nil,
		{Width: 0, Height: 2, Pix: nil},
		{Width: 2, Height: 2, Pix: make([]byte, 15)},
	}
	for i, b := range bad {
		if err := b.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestPixelBufferFromImageKeepsHiddenColour(t *testing.T) {
	img := image.NewNRGBA(image.Rect(2, 3, 5, 5))
	img.SetNRGBA(2, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	img.SetNRGBA(4, 4, color.NRGBA{R: 1, G: 2, B: 3, A: 4})

	buf := PixelBufferFromImage(img)
	if buf.Width != 3 || buf.Height != 2 {
		t.Fatalf("got %dx%d, want 3x2", buf.Width, buf.Height)
	}
	if r, g, b, a := buf.RGBA(0, 0); r != 10 || g != 20 || b != 30 || a != 0 {
		t.Errorf("pixel (0,0) = %d,%d,%d,%d", r, g, b, a)
	}
	if r, g, b, a := buf.RGBA(2, 1); r != 1 || g != 2 || b != 3 || a != 4 {
		t.Errorf("pixel (2,1) = %d,%d,%d,%d", r, g, b, a)
	}
}

func TestPixelBufferFromImageUnpremultiplies(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 100, G: 50, B: 0, A: 200})

	buf := PixelBufferFromImage(img)
	r, g, _, a := buf.RGBA(0, 0)
	if a != 200 || r != 127 || g != 63 {
		t.Errorf("got r=%d g=%d a=%d", r, g, a)
	}
}

func TestPipelineResultOrder(t *testing.T) {
	r := NewPipelineResult("run", SourceInfo{})
	for _, s := range []TargetSize{16, 64, 32} {
		r.Add(EncodedImage{Size: s, Format: OutputFormat})
	}
	r.Add(EncodedImage{Size: 64, Format: OutputFormat, Data: []byte{1}})

	want := []TargetSize{16, 64, 32}
	got := r.Sizes()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("sizes = %v, want %v", got, want)
	}
	if img, ok := r.Get(64); !ok || len(img.Data) != 1 {
		t.Errorf("replaced image not returned: %+v", img)
	}
	if _, ok := r.Get(8); ok {
		t.Error("unexpected size 8")
	}
}

func TestVariantFileName(t *testing.T) {
	if got := VariantFileName(32); got != "resized_32x32.png" {
		t.Errorf("got %q", got)
	}
}

func TestAcceptedMime(t *testing.T) {
	accepted := []string{"image/png", "image/png; charset=binary", "image/tiff", "image/svg+xml"}
	for _, m := range accepted {
		if !IsAcceptedMime(m) {
			t.Errorf("%q should be accepted", m)
		}
	}
	for _, m := range []string{"", "text/plain", "image/jpeg", "image/svg"} {
		if IsAcceptedMime(m) {
			t.Errorf("%q should be rejected", m)
		}
	}
	if NewSource("a.svg", MimeSVG, nil).Kind != Vector {
		t.Error("svg source should be vector")
	}
}

func TestKindOf(t *testing.T) {
	cases := map[ErrorKind]error{
		KindUnsupportedFormat: fmt.Errorf("wrapped: %w", &UnsupportedFormatError{MimeType: "text/plain"}),
		KindDecode:            &DecodeError{MimeType: MimePNG, Err: errors.New("bad")},
		KindEncode:            SizeFailure{Size: 16, Err: &EncodeError{Size: 16, Err: errors.New("bad")}},
		KindUnknown:           errors.New("other"),
		"":                    nil,
	}
	for want, err := range cases {
		if got := KindOf(err); got != want {
			t.Errorf("KindOf(%v) = %q, want %q", err, got, want)
		}
	}
}
