package converter

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"image"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const (
	DefaultRasterizer = "oksvg"

	// Size browsers give a replaced element that declares no dimensions.
	defaultVectorWidth  = 300
	defaultVectorHeight = 150
)

// VectorRasterizer renders a vector document at its intrinsic size. It never
// scales to a target size; that is left to the compositor.
type VectorRasterizer interface {
	Rasterize(ctx context.Context, document []byte) (image.Image, error)
}

type RasterizerFactory func() (VectorRasterizer, error)

var (
	rasterizersMu sync.RWMutex
	rasterizers   = map[string]RasterizerFactory{
		DefaultRasterizer: func() (VectorRasterizer, error) { return NewSVGRasterizer(), nil },
	}
)

// RegisterRasterizer makes a backend available by name. Backends that need
// native libraries register themselves from build-tagged files.
func RegisterRasterizer(name string, factory RasterizerFactory) {
	rasterizersMu.Lock()
	defer rasterizersMu.Unlock()
	rasterizers[name] = factory
}

func NewRasterizer(name string) (VectorRasterizer, error) {
	if name == "" {
		name = DefaultRasterizer
	}
	rasterizersMu.RLock()
	factory, ok := rasterizers[name]
	rasterizersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown rasterizer %q (available: %v)", name, RasterizerNames())
	}
	return factory()
}

func RasterizerNames() []string {
	rasterizersMu.RLock()
	defer rasterizersMu.RUnlock()
	names := make([]string, 0, len(rasterizers))
	for name := range rasterizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SVGRasterizer is the pure Go backend built on oksvg and rasterx.
type SVGRasterizer struct{}

func NewSVGRasterizer() *SVGRasterizer {
	return &SVGRasterizer{}
}

func (r *SVGRasterizer) Rasterize(ctx context.Context, document []byte) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := readSVGRoot(document)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("error parsing SVG document: %w", err)
	}

	w, h := intrinsicSize(root)
	if !root.hasViewBox() {
		// without a viewBox one user unit is one pixel
		icon.ViewBox.X, icon.ViewBox.Y = 0, 0
		icon.ViewBox.W, icon.ViewBox.H = float64(w), float64(h)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	return img, nil
}

type svgRoot struct {
	width  float64
	height float64
	viewW  float64
	viewH  float64
}

func (r svgRoot) hasViewBox() bool {
	return r.viewW > 0 && r.viewH > 0
}

// IsSVGDocument reports whether data is XML whose first element is <svg>.
func IsSVGDocument(data []byte) bool {
	_, err := readSVGRoot(data)
	return err == nil
}

// readSVGRoot finds the first element, which must be <svg>, and reads its
// width, height and viewBox attributes. oksvg accepts other documents
// silently and draws nothing.
func readSVGRoot(document []byte) (svgRoot, error) {
	dec := xml.NewDecoder(bytes.NewReader(document))
	for {
		tok, err := dec.Token()
		if err != nil {
			return svgRoot{}, fmt.Errorf("no svg root element: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return svgRoot{}, fmt.Errorf("root element is <%s>, not <svg>", start.Name.Local)
		}
		var root svgRoot
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "width":
				root.width = parseLength(attr.Value)
			case "height":
				root.height = parseLength(attr.Value)
			case "viewBox":
				root.viewW, root.viewH = parseViewBox(attr.Value)
			}
		}
		return root, nil
	}
}

// parseLength accepts plain numbers and px values. Relative units yield 0.
func parseLength(v string) float64 {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	return positive(v)
}

// parseViewBox returns the width and height of "min-x min-y width height".
func parseViewBox(v string) (float64, float64) {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return 0, 0
	}
	return positive(fields[2]), positive(fields[3])
}

func positive(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// intrinsicSize follows how browsers size an <svg> image: both root lengths
// win; a single length takes the other side from the viewBox aspect ratio;
// then the viewBox alone; then the default object size for missing sides.
func intrinsicSize(root svgRoot) (int, int) {
	w, h := root.width, root.height
	switch {
	case w > 0 && h > 0:
	case w > 0 && root.hasViewBox():
		h = w * root.viewH / root.viewW
	case h > 0 && root.hasViewBox():
		w = h * root.viewW / root.viewH
	case w > 0:
		h = defaultVectorHeight
	case h > 0:
		w = defaultVectorWidth
	case root.hasViewBox():
		w, h = root.viewW, root.viewH
	default:
		w, h = defaultVectorWidth, defaultVectorHeight
	}
	return max(int(math.Ceil(w)), 1), max(int(math.Ceil(h)), 1)
}
