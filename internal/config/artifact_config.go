package config

// ArtifactConfig defines configuration for saved artifact storage
type ArtifactConfig struct {
	OutputDir        string `json:"output_dir,omitempty" yaml:"output_dir,omitempty" validate:"omitempty,dirpath"`
	DefaultExtension string `json:"default_extension,omitempty" yaml:"default_extension,omitempty"`
}

// NewDefaultArtifactConfig creates default artifact configuration
func NewDefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		OutputDir:        DefaultArtifactOutputDir,
		DefaultExtension: DefaultArtifactExtension,
	}
}
