package converter

import (
	"testing"
)

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		target     TargetSize
		want       FitResult
	}{
		{"square", 512, 512, 64, FitResult{Width: 64, Height: 64}},
		{"square small source", 3, 3, 16, FitResult{Width: 16, Height: 16}},
		{"wide 2:1", 100, 50, 64, FitResult{Width: 64, Height: 32}},
		{"tall 1:2", 50, 100, 64, FitResult{Width: 32, Height: 64}},
		{"wide rounds down", 3, 2, 5, FitResult{Width: 5, Height: 3}},
		{"wide rounds half up", 4, 3, 6, FitResult{Width: 6, Height: 5}},
		{"tall rounds", 2, 3, 32, FitResult{Width: 21, Height: 32}},
		{"16:9 at 16", 1920, 1080, 16, FitResult{Width: 16, Height: 9}},
		{"extreme ratio clamps to one", 10000, 1, 16, FitResult{Width: 16, Height: 1}},
		{"extreme tall clamps to one", 1, 10000, 16, FitResult{Width: 1, Height: 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitDimensions(tt.srcW, tt.srcH, tt.target)
			if got != tt.want {
				t.Errorf("FitDimensions(%d, %d, %d) = %+v, want %+v", tt.srcW, tt.srcH, tt.target, got, tt.want)
			}
		})
	}
}

func TestFitDimensionsProperties(t *testing.T) {
	for target := TargetSize(1); target <= 128; target++ {
		for srcW := 1; srcW <= 40; srcW++ {
			for srcH := 1; srcH <= 40; srcH++ {
				fit := FitDimensions(srcW, srcH, target)
				switch {
				case srcW == srcH:
					if fit.Width != int(target) || fit.Height != int(target) {
						t.Fatalf("square %dx%d at %d: got %+v", srcW, srcH, target, fit)
					}
				case srcW > srcH:
					if fit.Width != int(target) || fit.Height < 1 || fit.Height > int(target) {
						t.Fatalf("wide %dx%d at %d: got %+v", srcW, srcH, target, fit)
					}
				default:
					if fit.Height != int(target) || fit.Width < 1 || fit.Width > int(target) {
						t.Fatalf("tall %dx%d at %d: got %+v", srcW, srcH, target, fit)
					}
				}
			}
		}
	}
}
