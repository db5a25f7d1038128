package converter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"iconresizer/contracts"
)

type Stage int

const (
	StageIdle Stage = iota
	StageDecoding
	StageFitting
	StageCompositing
	StageKeying
	StageEncoding
	StageDone
	StageFailed
)

var stageNames = [...]string{"idle", "decoding", "fitting", "compositing", "keying", "encoding", "done", "failed"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageEvent is reported on every state transition. Size is zero outside the
// per-size stages.
type StageEvent struct {
	RunID string
	Stage Stage
	Size  TargetSize
	Err   error
}

var errSizeAborted = errors.New("aborted after failure of another size")

type Pipeline struct {
	sizes      []TargetSize
	rasterizer VectorRasterizer
	logger     *zap.Logger
	workers    int
	isolate    bool
	observer   func(StageEvent)
	encode     func(*PixelBuffer, TargetSize) (EncodedImage, error)
}

var _ contracts.Converter = (*Pipeline)(nil)

type Option func(*Pipeline)

func WithRasterizer(r VectorRasterizer) Option {
	return func(p *Pipeline) { p.rasterizer = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithWorkers runs the per-size stages on n goroutines. Results keep request
// order whatever the completion order.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = max(n, 1) }
}

// WithIsolatedFailures keeps going when one size fails and records the
// failure on the result instead of failing the run.
func WithIsolatedFailures(isolate bool) Option {
	return func(p *Pipeline) { p.isolate = isolate }
}

// WithObserver registers fn for stage transitions. With more than one worker
// fn is called from several goroutines.
func WithObserver(fn func(StageEvent)) Option {
	return func(p *Pipeline) { p.observer = fn }
}

// NewPipeline builds a pipeline for a fixed, ordered list of sizes.
func NewPipeline(sizes []TargetSize, opts ...Option) (*Pipeline, error) {
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no target sizes")
	}
	seen := make(map[TargetSize]bool, len(sizes))
	for _, size := range sizes {
		if size <= 0 {
			return nil, fmt.Errorf("target size must be positive, got %d", size)
		}
		if seen[size] {
			return nil, fmt.Errorf("duplicate target size %d", size)
		}
		seen[size] = true
	}

	p := &Pipeline{
		sizes:      append([]TargetSize(nil), sizes...),
		rasterizer: NewSVGRasterizer(),
		logger:     zap.NewNop(),
		workers:    1,
		encode:     Encode,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Pipeline) Sizes() []TargetSize {
	return append([]TargetSize(nil), p.sizes...)
}

// Convert decodes src once and produces one variant per size.
func (p *Pipeline) Convert(ctx context.Context, src SourceImage) (*contracts.PipelineResult, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID), zap.String("source", src.Name))
	startTime := time.Now()

	p.emit(StageEvent{RunID: runID, Stage: StageIdle})

	if err := CheckFormat(src); err != nil {
		log.Warn("source rejected", zap.String("mime_type", src.MimeType), zap.Error(err))
		p.emit(StageEvent{RunID: runID, Stage: StageFailed, Err: err})
		return nil, err
	}

	p.emit(StageEvent{RunID: runID, Stage: StageDecoding})
	buf, info, err := Decode(ctx, src, p.rasterizer)
	if err != nil {
		log.Error("decode failed", zap.Error(err))
		p.emit(StageEvent{RunID: runID, Stage: StageFailed, Err: err})
		return nil, err
	}
	log.Debug("source decoded",
		zap.String("mime_type", info.MimeType),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Float64("dpi_x", info.DPIX),
		zap.Float64("dpi_y", info.DPIY),
	)

	preview, err := Encode(buf, 0)
	if err != nil {
		log.Error("preview encode failed", zap.Error(err))
		p.emit(StageEvent{RunID: runID, Stage: StageFailed, Err: err})
		return nil, err
	}

	var results []sizeResult
	if p.workers > 1 && len(p.sizes) > 1 {
		results = p.runParallel(ctx, runID, buf)
	} else {
		results = p.runSequential(ctx, runID, buf)
	}

	result := contracts.NewPipelineResult(runID, info)
	result.Preview = preview

	var firstErr error
	for _, r := range results {
		if r.err == nil {
			result.Add(r.image)
			continue
		}
		if errors.Is(r.err, errSizeAborted) {
			continue
		}
		if firstErr == nil {
			firstErr = r.err
		}
		if p.isolate {
			result.Failures = append(result.Failures, contracts.SizeFailure{Size: r.size, Err: r.err})
		}
	}

	switch {
	case firstErr != nil && !p.isolate:
		log.Error("conversion aborted", zap.Error(firstErr))
		p.emit(StageEvent{RunID: runID, Stage: StageFailed, Err: firstErr})
		return nil, firstErr
	case result.Len() == 0:
		errs := make([]error, 0, len(result.Failures))
		for _, f := range result.Failures {
			errs = append(errs, f)
		}
		err := fmt.Errorf("all %d sizes failed: %w", len(p.sizes), errors.Join(errs...))
		log.Error("conversion failed", zap.Error(err))
		p.emit(StageEvent{RunID: runID, Stage: StageFailed, Err: err})
		return nil, err
	}

	for _, f := range result.Failures {
		log.Warn("size failed", zap.Int("size", int(f.Size)), zap.Error(f.Err))
	}
	log.Info("conversion completed",
		zap.Int("variants", result.Len()),
		zap.Int("failed", len(result.Failures)),
		zap.Duration("took", time.Since(startTime)),
	)
	p.emit(StageEvent{RunID: runID, Stage: StageDone})
	return result, nil
}

type sizeTask struct {
	index int
	size  TargetSize
}

type sizeResult struct {
	index int
	size  TargetSize
	image EncodedImage
	err   error
}

func (p *Pipeline) runSequential(ctx context.Context, runID string, buf *PixelBuffer) []sizeResult {
	results := make([]sizeResult, 0, len(p.sizes))
	for i, size := range p.sizes {
		img, err := p.processSize(ctx, runID, buf, size)
		results = append(results, sizeResult{index: i, size: size, image: img, err: err})
		if err != nil && !p.isolate {
			break
		}
	}
	return results
}

// runParallel hands sizes to a fixed set of workers and reassembles the
// results by index. In abort mode the first failure cancels sizes that have
// not finished yet.
func (p *Pipeline) runParallel(ctx context.Context, runID string, buf *PixelBuffer) []sizeResult {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	taskChan := make(chan sizeTask)
	resultChan := make(chan sizeResult, len(p.sizes))

	numWorkers := min(p.workers, len(p.sizes))
	wg := &sync.WaitGroup{}
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go p.sizeWorker(ctx, runID, buf, taskChan, resultChan, wg)
	}

	go func() {
		defer close(taskChan)
		for i, size := range p.sizes {
			select {
			case taskChan <- sizeTask{index: i, size: size}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	resultsBuffer := make(map[int]sizeResult)
	results := make([]sizeResult, 0, len(p.sizes))
	nextIndex := 0
	for r := range resultChan {
		if r.err != nil && !p.isolate {
			cancel(errSizeAborted)
		}
		resultsBuffer[r.index] = r
		for {
			next, ok := resultsBuffer[nextIndex]
			if !ok {
				break
			}
			results = append(results, next)
			delete(resultsBuffer, nextIndex)
			nextIndex++
		}
	}
	// sizes never handed out leave gaps; keep what arrived, still in order
	for i := nextIndex; i < len(p.sizes); i++ {
		if r, ok := resultsBuffer[i]; ok {
			results = append(results, r)
		}
	}
	return results
}

func (p *Pipeline) sizeWorker(ctx context.Context, runID string, buf *PixelBuffer, taskChan <-chan sizeTask, resultChan chan<- sizeResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for task := range taskChan {
		img, err := p.processSize(ctx, runID, buf, task.size)
		resultChan <- sizeResult{index: task.index, size: task.size, image: img, err: err}
	}
}

// processSize runs fit, composite, key and encode for one size. buf is only
// read.
func (p *Pipeline) processSize(ctx context.Context, runID string, buf *PixelBuffer, size TargetSize) (EncodedImage, error) {
	step := func(stage Stage) error {
		if err := ctx.Err(); err != nil {
			return context.Cause(ctx)
		}
		p.emit(StageEvent{RunID: runID, Stage: stage, Size: size})
		return nil
	}

	if err := step(StageFitting); err != nil {
		return EncodedImage{}, err
	}
	fit := FitDimensions(buf.Width, buf.Height, size)

	if err := step(StageCompositing); err != nil {
		return EncodedImage{}, err
	}
	canvas := Composite(buf, fit, size)

	if err := step(StageKeying); err != nil {
		return EncodedImage{}, err
	}
	keyed := KeyBackground(canvas)

	if err := step(StageEncoding); err != nil {
		return EncodedImage{}, err
	}
	img, err := p.encode(keyed, size)
	if err != nil {
		return EncodedImage{}, err
	}

	p.logger.Debug("size converted",
		zap.String("run_id", runID),
		zap.Int("size", int(size)),
		zap.Int("fit_width", fit.Width),
		zap.Int("fit_height", fit.Height),
		zap.Int("bytes", len(img.Data)),
	)
	return img, nil
}

func (p *Pipeline) emit(ev StageEvent) {
	if p.observer != nil {
		p.observer(ev)
	}
}
