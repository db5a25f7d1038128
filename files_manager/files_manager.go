package files_manager

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"iconresizer/contracts"
	"iconresizer/converter"
)

type SourceImage = contracts.SourceImage
type OutputFolder = contracts.OutputFolder

// sniffLimit is how much of a file is read before its type is known.
const sniffLimit = 3072

// DetectMimeType sniffs header bytes. Parameters such as charset are dropped.
func DetectMimeType(header []byte) string {
	mt := mimetype.Detect(header).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// OpenSource reads a source image from path. Binary files of other types are
// rejected after reading only the header.
func OpenSource(path string) (SourceImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return SourceImage{}, fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return SourceImage{}, fmt.Errorf("failed to stat source: %w", err)
	}
	if info.IsDir() {
		return SourceImage{}, fmt.Errorf("source %s is a directory", path)
	}

	header := make([]byte, sniffLimit)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return SourceImage{}, fmt.Errorf("failed to read source header: %w", err)
	}
	header = header[:n]

	mimeType := DetectMimeType(header)
	textual := strings.HasPrefix(mimeType, "text/")
	if !contracts.IsAcceptedMime(mimeType) && !textual {
		return SourceImage{}, &contracts.UnsupportedFormatError{MimeType: mimeType}
	}

	var data bytes.Buffer
	data.Grow(int(info.Size()))
	data.Write(header)
	if _, err := io.Copy(&data, f); err != nil {
		return SourceImage{}, fmt.Errorf("failed to read source: %w", err)
	}

	// SVG opening with a comment or a long prolog sniffs as text/html or
	// text/xml, so text is checked for an <svg> root element.
	if textual && !contracts.IsAcceptedMime(mimeType) {
		if !converter.IsSVGDocument(data.Bytes()) {
			return SourceImage{}, &contracts.UnsupportedFormatError{MimeType: mimeType}
		}
		mimeType = contracts.MimeSVG
	}

	return contracts.NewSource(filepath.Base(path), mimeType, data.Bytes()), nil
}

// IsCandidate reports whether a file name looks like a source worth sniffing.
// Hidden files and AppleDouble companions are skipped.
func IsCandidate(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".svg", ".tif", ".tiff":
		return true
	}
	return false
}

// CheckOutputDir creates dir when missing and verifies it is a directory.
func CheckOutputDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("output directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if stat, err := os.Stat(dir); err != nil || !stat.IsDir() {
		return fmt.Errorf("output path %s is not a directory", dir)
	}
	return nil
}

// WriteFile writes data next to its final name and renames it into place, so
// readers never see a partial file.
func WriteFile(dir, name string, data []byte) (string, error) {
	finalPath := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	info, err := os.Stat(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to get file info: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(tmpPath)
		return "", fmt.Errorf("file is empty: %s", tmpPath)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename file: %w", err)
	}
	return finalPath, nil
}

// WriteResult writes every variant as resized_{n}x{n}.png, plus original.png
// when writeOriginal is set.
func WriteResult(dir string, result *contracts.PipelineResult, writeOriginal bool) (OutputFolder, error) {
	out := OutputFolder{Path: dir}
	if err := CheckOutputDir(dir); err != nil {
		return out, err
	}

	for _, img := range result.Images() {
		path, err := WriteFile(dir, img.FileName(), img.Data)
		if err != nil {
			return out, err
		}
		out.Entries = append(out.Entries, path)
	}

	if writeOriginal && len(result.Preview.Data) > 0 {
		path, err := WriteFile(dir, contracts.OriginalFileName, result.Preview.Data)
		if err != nil {
			return out, err
		}
		out.Entries = append(out.Entries, path)
	}
	return out, nil
}
