package rasterizer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aleister1102/schedwatch/internal/common/errorwrapper"
	"github.com/aleister1102/schedwatch/internal/config"
	"github.com/rs/zerolog"
)

// Rasterizer converts a saved document into one image per page. It is an
// opaque collaborator invoked on artifacts the monitor writes; it never
// participates in change detection and its failures only log.
type Rasterizer interface {
	Rasterize(ctx context.Context, documentPath string) error
}

// NewFromConfig returns the configured rasterizer, or a no-op one when the
// feature is disabled.
func NewFromConfig(cfg config.RasterizerConfig, logger zerolog.Logger) Rasterizer {
	if !cfg.Enabled {
		return noopRasterizer{}
	}
	return NewCommandRasterizer(cfg, logger)
}

type noopRasterizer struct{}

func (noopRasterizer) Rasterize(context.Context, string) error { return nil }

// CommandRasterizer shells out to an external pdftoppm-compatible tool with
// the configured DPI. Page images land in the configured output directory
// under the document's base name.
type CommandRasterizer struct {
	cfg    config.RasterizerConfig
	logger zerolog.Logger
}

// NewCommandRasterizer creates a new CommandRasterizer.
func NewCommandRasterizer(cfg config.RasterizerConfig, logger zerolog.Logger) *CommandRasterizer {
	return &CommandRasterizer{
		cfg:    cfg,
		logger: logger.With().Str("component", "Rasterizer").Logger(),
	}
}

// Rasterize renders each page of the document to a PNG file.
func (cr *CommandRasterizer) Rasterize(ctx context.Context, documentPath string) error {
	if cr.cfg.Command == "" {
		return errorwrapper.NewValidationError("command", cr.cfg.Command, "rasterizer command cannot be empty")
	}

	if err := os.MkdirAll(cr.cfg.OutputDir, 0755); err != nil {
		return errorwrapper.NewStorageError("mkdir", cr.cfg.OutputDir, err)
	}

	baseName := strings.TrimSuffix(filepath.Base(documentPath), filepath.Ext(documentPath))
	outputPrefix := filepath.Join(cr.cfg.OutputDir, baseName+"_page")

	args := []string{
		"-png",
		"-r", strconv.Itoa(cr.cfg.DPI),
		documentPath,
		outputPrefix,
	}

	cmd := exec.CommandContext(ctx, cr.cfg.Command, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("rasterizer command %q failed: %w (output: %s)", cr.cfg.Command, err, strings.TrimSpace(string(output)))
	}

	cr.logger.Info().
		Str("document", documentPath).
		Str("output_prefix", outputPrefix).
		Int("dpi", cr.cfg.DPI).
		Msg("Document rasterized to page images")

	return nil
}
