package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iconresizer/contracts"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "iconresizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []int{64, 32, 16}, cfg.Sizes)
	assert.Equal(t, []contracts.TargetSize{64, 32, 16}, cfg.TargetSizes())
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
sizes: [128, 48]
output_dir: icons
workers: 2
isolate_failures: true
preview_pdf: true
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{128, 48}, cfg.Sizes)
	assert.Equal(t, "icons", cfg.OutputDir)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.IsolateFailures)
	assert.True(t, cfg.PreviewPDF)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// untouched fields keep their defaults
	assert.Equal(t, "oksvg", cfg.Rasterizer)
	assert.Equal(t, 10, cfg.Log.MaxSize)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"duplicate sizes": "sizes: [16, 16]",
		"zero size":       "sizes: [0]",
		"empty sizes":     "sizes: []",
		"bad level":       "log: {level: loud}",
		"bad format":      "log: {format: xml}",
		"not yaml":        "sizes: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyFlags(t *testing.T) {
	cfg := Default()
	flags := contracts.InputFlags{Sizes: []int{20}, OutputDir: "out", Workers: 8, PreviewPDF: true}
	changed := map[string]bool{"sizes": true, "preview-pdf": true}

	cfg.ApplyFlags(flags, func(name string) bool { return changed[name] })

	assert.Equal(t, []int{20}, cfg.Sizes)
	assert.True(t, cfg.PreviewPDF)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, 1, cfg.Workers)
}
