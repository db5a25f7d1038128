package converter

import (
	"math"

	"iconresizer/contracts"
)

type FitResult = contracts.FitResult
type TargetSize = contracts.TargetSize

// FitDimensions scales srcW x srcH to fit a target x target square, keeping the
// aspect ratio. Each branch rounds on its own, so the fitted rectangle can be
// off by one pixel from the exact ratio.
func FitDimensions(srcW, srcH int, target TargetSize) FitResult {
	t := float64(target)
	ratio := float64(srcW) / float64(srcH)

	var width, height int
	if ratio > 1 {
		width = int(target)
		height = int(math.Round(t / ratio))
	} else {
		height = int(target)
		width = int(math.Round(t * ratio))
	}

	// extreme ratios round to zero
	return FitResult{Width: max(width, 1), Height: max(height, 1)}
}
