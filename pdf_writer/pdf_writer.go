package pdf_writer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"

	"iconresizer/contracts"
)

type EncodedImage = contracts.EncodedImage

const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	margin       = 15.0
	mmPerPixel   = 0.75
	checkerCell  = 2.5
	captionSpace = 8.0
	gap          = 10.0

	originalBoxW = pageWidth - 2*margin
	originalBoxH = 90.0
)

// PreviewWriter lays out the source and its variants on A4 pages, each on a
// checkerboard so transparent areas are visible.
type PreviewWriter struct {
	pdf        *gofpdf.Fpdf
	dst        io.Writer
	imageInfos []imageInfo

	cursorX, cursorY float64
	rowHeight        float64
}

type imageInfo struct {
	id     string
	width  float64
	height float64
}

func NewPreviewWriter(dst io.Writer, title string) (*PreviewWriter, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("iconresizer", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(margin, margin+5, title)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("error writing PDF header: %w", err)
	}

	return &PreviewWriter{
		pdf:     pdf,
		dst:     dst,
		cursorX: margin,
		cursorY: margin + 12,
	}, nil
}

// WriteOriginal draws the decoded source scaled to fit the top box.
func (pw *PreviewWriter) WriteOriginal(img EncodedImage, info contracts.SourceInfo) error {
	if info.Width <= 0 || info.Height <= 0 {
		return fmt.Errorf("invalid source size %dx%d", info.Width, info.Height)
	}
	w := float64(info.Width) * mmPerPixel
	h := float64(info.Height) * mmPerPixel
	if scale := min(originalBoxW/w, originalBoxH/h); scale < 1 {
		w *= scale
		h *= scale
	}
	caption := fmt.Sprintf("original %dx%d (%s)", info.Width, info.Height, info.MimeType)
	if err := pw.place("original", img.Data, w, h, caption); err != nil {
		return fmt.Errorf("error writing original image: %w", err)
	}
	pw.newRow()
	return nil
}

// WriteVariant draws one variant at a fixed scale per pixel so relative sizes
// stay comparable.
func (pw *PreviewWriter) WriteVariant(img EncodedImage) error {
	side := float64(img.Size) * mmPerPixel
	id := fmt.Sprintf("variant_%d", img.Size)
	caption := fmt.Sprintf("%dx%d", img.Size, img.Size)
	if err := pw.place(id, img.Data, side, side, caption); err != nil {
		return fmt.Errorf("error writing %s image: %w", caption, err)
	}
	return nil
}

func (pw *PreviewWriter) place(id string, data []byte, w, h float64, caption string) error {
	if pw.cursorX+w > pageWidth-margin && pw.cursorX > margin {
		pw.newRow()
	}
	if pw.cursorY+h+captionSpace > pageHeight-margin {
		pw.pdf.AddPage()
		pw.cursorX, pw.cursorY, pw.rowHeight = margin, margin, 0
	}

	x, y := pw.cursorX, pw.cursorY
	pw.drawChecker(x, y, w, h)

	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pw.pdf.RegisterImageOptionsReader(id, opts, bytes.NewReader(data))
	pw.pdf.ImageOptions(id, x, y, w, h, false, opts, 0, "")

	pw.pdf.SetFont("Helvetica", "", 9)
	pw.pdf.SetTextColor(80, 80, 80)
	pw.pdf.Text(x, y+h+5, caption)

	if err := pw.pdf.Error(); err != nil {
		return err
	}

	pw.imageInfos = append(pw.imageInfos, imageInfo{id: id, width: w, height: h})
	pw.cursorX += w + gap
	pw.rowHeight = max(pw.rowHeight, h+captionSpace)
	return nil
}

func (pw *PreviewWriter) newRow() {
	pw.cursorX = margin
	pw.cursorY += pw.rowHeight + gap
	pw.rowHeight = 0
}

func (pw *PreviewWriter) drawChecker(x, y, w, h float64) {
	pw.pdf.SetFillColor(255, 255, 255)
	pw.pdf.Rect(x, y, w, h, "F")
	pw.pdf.SetFillColor(204, 204, 204)
	for row := 0; float64(row)*checkerCell < h; row++ {
		for col := row % 2; float64(col)*checkerCell < w; col += 2 {
			cx := x + float64(col)*checkerCell
			cy := y + float64(row)*checkerCell
			pw.pdf.Rect(cx, cy, min(checkerCell, x+w-cx), min(checkerCell, y+h-cy), "F")
		}
	}
}

func (pw *PreviewWriter) Finish() error {
	if err := pw.pdf.Output(pw.dst); err != nil {
		return fmt.Errorf("error writing PDF: %w", err)
	}
	return nil
}

// WritePreviewSheet renders the whole result: the original on top, then the
// variants in request order.
func WritePreviewSheet(dst io.Writer, title string, result *contracts.PipelineResult) error {
	pw, err := NewPreviewWriter(dst, title)
	if err != nil {
		return err
	}
	if len(result.Preview.Data) > 0 {
		if err := pw.WriteOriginal(result.Preview, result.Source); err != nil {
			return err
		}
	}
	for _, img := range result.Images() {
		if err := pw.WriteVariant(img); err != nil {
			return err
		}
	}
	return pw.Finish()
}
