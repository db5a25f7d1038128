package contracts

import "context"

// Converter turns one source into its encoded variants.
type Converter interface {
	Convert(ctx context.Context, src SourceImage) (*PipelineResult, error)
}
