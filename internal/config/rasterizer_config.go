package config

// RasterizerConfig defines configuration for the external page rasterizer.
// The rasterizer is an opaque collaborator invoked on PDF artifacts after they
// are written; it never participates in change detection.
type RasterizerConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Command   string `json:"command,omitempty" yaml:"command,omitempty"`
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	DPI       int    `json:"dpi,omitempty" yaml:"dpi,omitempty" validate:"omitempty,min=1"`
	Padding   int    `json:"padding,omitempty" yaml:"padding,omitempty" validate:"omitempty,min=0"`
}

// NewDefaultRasterizerConfig creates default rasterizer configuration
func NewDefaultRasterizerConfig() RasterizerConfig {
	return RasterizerConfig{
		Enabled:   false,
		Command:   "pdftoppm",
		OutputDir: DefaultRasterizerOutputDir,
		DPI:       DefaultRasterizerDPI,
		Padding:   DefaultRasterizerPadding,
	}
}
