package converter

import (
	"image"

	"golang.org/x/image/draw"

	"iconresizer/contracts"
)

// Resampler used for every downscale. Catmull-Rom keeps icon-sized output
// legible where nearest neighbour would drop detail.
var Resampler draw.Interpolator = draw.CatmullRom

// Offset returns where a fitted rectangle sits on the canvas. Odd padding
// goes to the right and bottom.
func Offset(fit FitResult, target TargetSize) image.Point {
	return image.Pt((int(target)-fit.Width)/2, (int(target)-fit.Height)/2)
}

// Composite resamples src to fit and draws it source-over, centred on a
// transparent target x target canvas.
func Composite(src *PixelBuffer, fit FitResult, target TargetSize) *PixelBuffer {
	scaled := image.NewRGBA(image.Rect(0, 0, fit.Width, fit.Height))
	srcImg := src.Image()
	Resampler.Scale(scaled, scaled.Bounds(), srcImg, srcImg.Bounds(), draw.Src, nil)

	canvas := image.NewRGBA(image.Rect(0, 0, int(target), int(target)))
	off := Offset(fit, target)
	dst := image.Rectangle{Min: off, Max: off.Add(scaled.Bounds().Size())}
	draw.Draw(canvas, dst, scaled, image.Point{}, draw.Over)

	return contracts.PixelBufferFromImage(canvas)
}
