package tests

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"iconresizer/contracts"
	"iconresizer/converter"
	"iconresizer/files_manager"
	"iconresizer/pdf_writer"
)

const badgeSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="80" height="40" viewBox="0 0 80 40">
  <rect x="0" y="0" width="80" height="40" fill="#ffffff"/>
  <rect x="20" y="0" width="40" height="40" fill="#1e3cc8"/>
</svg>`

// writeBadge writes a 60x30 logo: a blue square centred on white.
func writeBadge(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 60, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 60; x++ {
			c := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			if x >= 15 && x < 45 {
				c = color.NRGBA{R: 30, G: 60, B: 200, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, "badge.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func decodeFile(t *testing.T, path string) *image.NRGBA {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	nrgba, ok := img.(*image.NRGBA)
	require.True(t, ok, "expected NRGBA output, got %T", img)
	return nrgba
}

func convertToDir(t *testing.T, srcPath, outDir string, opts ...converter.Option) contracts.OutputFolder {
	t.Helper()
	src, err := files_manager.OpenSource(srcPath)
	require.NoError(t, err)

	opts = append(opts, converter.WithLogger(zaptest.NewLogger(t)))
	pipeline, err := converter.NewPipeline(contracts.DefaultSizes, opts...)
	require.NoError(t, err)

	result, err := pipeline.Convert(context.Background(), src)
	require.NoError(t, err)

	out, err := files_manager.WriteResult(outDir, result, false)
	require.NoError(t, err)

	var sheet bytes.Buffer
	require.NoError(t, pdf_writer.WritePreviewSheet(&sheet, src.Name, result))
	_, err = files_manager.WriteFile(outDir, contracts.PreviewFileName, sheet.Bytes())
	require.NoError(t, err)
	return out
}

func TestPNGToTransparentIcons(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	folder := convertToDir(t, writeBadge(t, in), out)

	require.Len(t, folder.Entries, 3)
	for i, size := range contracts.DefaultSizes {
		assert.Equal(t, filepath.Join(out, contracts.VariantFileName(size)), folder.Entries[i])
	}

	icon := decodeFile(t, filepath.Join(out, "resized_64x64.png"))
	require.Equal(t, image.Rect(0, 0, 64, 64), icon.Bounds())

	// 2:1 source fits as 64x32 starting at row 16
	assert.Zero(t, icon.NRGBAAt(32, 5).A, "top padding must be transparent")
	assert.Zero(t, icon.NRGBAAt(32, 58).A, "bottom padding must be transparent")
	assert.Zero(t, icon.NRGBAAt(3, 32).A, "white background must be keyed out")

	centre := icon.NRGBAAt(32, 32)
	assert.Equal(t, uint8(255), centre.A)
	assert.InDelta(t, 200, int(centre.B), 3)

	for _, size := range contracts.DefaultSizes[1:] {
		img := decodeFile(t, filepath.Join(out, contracts.VariantFileName(size)))
		assert.Equal(t, image.Rect(0, 0, int(size), int(size)), img.Bounds())
	}

	sheet, err := os.ReadFile(filepath.Join(out, contracts.PreviewFileName))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(sheet, []byte("%PDF-")))
}

func TestParallelMatchesSequential(t *testing.T) {
	in := t.TempDir()
	src := writeBadge(t, in)
	seqDir := t.TempDir()
	parDir := t.TempDir()

	convertToDir(t, src, seqDir)
	convertToDir(t, src, parDir, converter.WithWorkers(3))

	for _, size := range contracts.DefaultSizes {
		name := contracts.VariantFileName(size)
		seq, err := os.ReadFile(filepath.Join(seqDir, name))
		require.NoError(t, err)
		par, err := os.ReadFile(filepath.Join(parDir, name))
		require.NoError(t, err)
		assert.Equal(t, seq, par, "%s differs between sequential and parallel runs", name)
	}
}

func TestSVGToTransparentIcons(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	path := filepath.Join(in, "badge.svg")
	require.NoError(t, os.WriteFile(path, []byte(badgeSVG), 0o644))

	convertToDir(t, path, out)

	icon := decodeFile(t, filepath.Join(out, "resized_64x64.png"))
	assert.Zero(t, icon.NRGBAAt(32, 4).A)
	assert.Zero(t, icon.NRGBAAt(2, 32).A, "white fill must be keyed out")
	assert.Equal(t, uint8(255), icon.NRGBAAt(32, 32).A)
}

func TestUnsupportedSourceWritesNothing(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	path := filepath.Join(in, "readme.png")
	require.NoError(t, os.WriteFile(path, []byte("this is only text"), 0o644))

	_, err := files_manager.OpenSource(path)
	require.Error(t, err)
	assert.Equal(t, contracts.KindUnsupportedFormat, contracts.KindOf(err))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
