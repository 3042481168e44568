package rasterizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/schedwatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfig_DisabledIsNoop(t *testing.T) {
	cfg := config.NewDefaultRasterizerConfig()
	cfg.Enabled = false

	r := NewFromConfig(cfg, zerolog.Nop())
	assert.NoError(t, r.Rasterize(context.Background(), "/nonexistent/doc.pdf"))
}

func TestCommandRasterizer_RunsConfiguredCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewDefaultRasterizerConfig()
	cfg.Enabled = true
	cfg.Command = "true" // always succeeds, ignores args
	cfg.OutputDir = filepath.Join(dir, "pages")

	r := NewCommandRasterizer(cfg, zerolog.Nop())
	require.NoError(t, r.Rasterize(context.Background(), filepath.Join(dir, "spo_20250901_083000.pdf")))

	info, err := os.Stat(cfg.OutputDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCommandRasterizer_CommandFailure(t *testing.T) {
	cfg := config.NewDefaultRasterizerConfig()
	cfg.Enabled = true
	cfg.Command = "false"
	cfg.OutputDir = t.TempDir()

	r := NewCommandRasterizer(cfg, zerolog.Nop())
	assert.Error(t, r.Rasterize(context.Background(), "doc.pdf"))
}

func TestCommandRasterizer_EmptyCommand(t *testing.T) {
	cfg := config.NewDefaultRasterizerConfig()
	cfg.Enabled = true
	cfg.Command = ""

	r := NewCommandRasterizer(cfg, zerolog.Nop())
	assert.Error(t, r.Rasterize(context.Background(), "doc.pdf"))
}
