package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/schedwatch/internal/common/errorwrapper"
	"github.com/aleister1102/schedwatch/internal/config"
	"github.com/rs/zerolog"
)

const artifactTimestampLayout = "20060102_150405"

// ArtifactStore persists fetched payloads as timestamped files in the
// configured output directory. One file is written per first observation or
// detected change; unchanged fetches write nothing.
type ArtifactStore struct {
	outputDir  string
	defaultExt string
	logger     zerolog.Logger
}

// NewArtifactStore creates the store and ensures the output directory exists.
func NewArtifactStore(cfg *config.ArtifactConfig, logger zerolog.Logger) (*ArtifactStore, error) {
	if cfg.OutputDir == "" {
		return nil, errorwrapper.NewValidationError("output_dir", cfg.OutputDir, "artifact output directory cannot be empty")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, errorwrapper.NewStorageError("mkdir", cfg.OutputDir, err)
	}

	defaultExt := cfg.DefaultExtension
	if defaultExt == "" {
		defaultExt = config.DefaultArtifactExtension
	}

	return &ArtifactStore{
		outputDir:  cfg.OutputDir,
		defaultExt: defaultExt,
		logger:     logger.With().Str("component", "ArtifactStore").Logger(),
	}, nil
}

// Save writes payload as `<identity>_<YYYYMMDD_HHMMSS><ext>` and returns the
// path. When that name is already taken within the same second, a `_<n>`
// suffix disambiguates so an earlier artifact is never overwritten.
// The write goes through a temp file so a crashed write never leaves a
// truncated artifact behind.
func (as *ArtifactStore) Save(identity, ext string, payload []byte, retrievedAt time.Time) (string, error) {
	if ext == "" {
		ext = as.defaultExt
	}

	tmpFile, err := os.CreateTemp(as.outputDir, "."+identity+"-*")
	if err != nil {
		return "", errorwrapper.NewStorageError("create temp", as.outputDir, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(payload); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", errorwrapper.NewStorageError("write", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", errorwrapper.NewStorageError("close", tmpPath, err)
	}

	finalPath, err := as.publish(tmpPath, identity, ext, retrievedAt)
	os.Remove(tmpPath)
	if err != nil {
		return "", err
	}

	as.logger.Info().
		Str("path", finalPath).
		Int("bytes", len(payload)).
		Msg("Saved new artifact")

	return finalPath, nil
}

// publish links the temp file to the first free timestamped name. Linking
// fails when the target already exists, so concurrent saves racing for the
// same identity and second each reserve a distinct name instead of
// overwriting one another.
func (as *ArtifactStore) publish(tmpPath, identity, ext string, retrievedAt time.Time) (string, error) {
	base := fmt.Sprintf("%s_%s", identity, retrievedAt.Format(artifactTimestampLayout))
	path := filepath.Join(as.outputDir, base+ext)

	for seq := 1; ; seq++ {
		err := os.Link(tmpPath, path)
		if err == nil {
			return path, nil
		}
		if !os.IsExist(err) {
			return "", errorwrapper.NewStorageError("link", path, err)
		}
		path = filepath.Join(as.outputDir, fmt.Sprintf("%s_%d%s", base, seq, ext))
	}
}

// OutputDir returns the directory artifacts are written to.
func (as *ArtifactStore) OutputDir() string {
	return as.outputDir
}
