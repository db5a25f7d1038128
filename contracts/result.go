package contracts

import "fmt"

const OutputFormat = "png"

type TargetSize int

var DefaultSizes = []TargetSize{64, 32, 16}

type FitResult struct {
	Width  int
	Height int
}

type EncodedImage struct {
	Size   TargetSize
	Format string
	Data   []byte
}

func (e EncodedImage) FileName() string {
	return VariantFileName(e.Size)
}

func VariantFileName(size TargetSize) string {
	return fmt.Sprintf("resized_%dx%d.%s", size, size, OutputFormat)
}

type SourceInfo struct {
	MimeType string
	Width    int
	Height   int
	DPIX     float64
	DPIY     float64
}

// PipelineResult keeps the variants in the order the sizes were requested.
type PipelineResult struct {
	RunID    string
	Source   SourceInfo
	Preview  EncodedImage
	Failures []SizeFailure

	order  []TargetSize
	images map[TargetSize]EncodedImage
}

func NewPipelineResult(runID string, source SourceInfo) *PipelineResult {
	return &PipelineResult{
		RunID:  runID,
		Source: source,
		images: make(map[TargetSize]EncodedImage),
	}
}

// Add stores img under its size. A size already present keeps its position.
func (r *PipelineResult) Add(img EncodedImage) {
	if _, ok := r.images[img.Size]; !ok {
		r.order = append(r.order, img.Size)
	}
	r.images[img.Size] = img
}

func (r *PipelineResult) Get(size TargetSize) (EncodedImage, bool) {
	img, ok := r.images[size]
	return img, ok
}

func (r *PipelineResult) Sizes() []TargetSize {
	out := make([]TargetSize, len(r.order))
	copy(out, r.order)
	return out
}

func (r *PipelineResult) Images() []EncodedImage {
	out := make([]EncodedImage, 0, len(r.order))
	for _, size := range r.order {
		out = append(out, r.images[size])
	}
	return out
}

func (r *PipelineResult) Len() int {
	return len(r.order)
}
