package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleister1102/schedwatch/internal/common/errorwrapper"
	"github.com/aleister1102/schedwatch/internal/config"
	"github.com/aleister1102/schedwatch/internal/models"
	"github.com/aleister1102/schedwatch/internal/urlhandler"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

const monitorDataDir = "monitor"

// HistoryStore appends fetch evaluations to per-host parquet files. It is an
// audit trail only: records are never read back to seed fingerprint state, so
// a restarted process re-baselines every source.
type HistoryStore struct {
	basePath string
	codec    string
	logger   zerolog.Logger
}

// NewHistoryStore creates a parquet-backed history store under the configured
// base path.
func NewHistoryStore(cfg *config.StorageConfig, logger zerolog.Logger) (*HistoryStore, error) {
	if cfg.ParquetBasePath == "" {
		return nil, errorwrapper.NewValidationError("parquet_base_path", cfg.ParquetBasePath, "parquet base path cannot be empty")
	}

	return &HistoryStore{
		basePath: cfg.ParquetBasePath,
		codec:    cfg.CompressionCodec,
		logger:   logger.With().Str("component", "HistoryStore").Logger(),
	}, nil
}

// StoreFetchRecord appends one record to the URL's history file. Existing
// records are read and rewritten together with the new one; parquet files do
// not support in-place appends.
func (hs *HistoryStore) StoreFetchRecord(record models.FetchRecord) error {
	filePath, err := hs.historyFilePath(record.URL)
	if err != nil {
		return err
	}

	existing, err := hs.readRecords(filePath)
	if err != nil {
		hs.logger.Warn().Err(err).Str("file_path", filePath).Msg("Could not read existing history, starting fresh")
		existing = nil
	}
	existing = append(existing, record)

	return hs.writeRecords(filePath, existing)
}

// ReadHistory returns all recorded fetches for a URL, oldest first.
func (hs *HistoryStore) ReadHistory(recordURL string) ([]models.FetchRecord, error) {
	filePath, err := hs.historyFilePath(recordURL)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil
	}
	return hs.readRecords(filePath)
}

func (hs *HistoryStore) historyFilePath(recordURL string) (string, error) {
	hostPort, err := urlhandler.ExtractHostnameWithPort(recordURL)
	if err != nil {
		return "", errorwrapper.WrapError(err, "failed to extract hostname:port from URL: "+recordURL)
	}

	dir := filepath.Join(hs.basePath, monitorDataDir, urlhandler.SanitizeHostnamePort(hostPort))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errorwrapper.NewStorageError("mkdir", dir, err)
	}

	fileName := fmt.Sprintf("%s_history.parquet", urlhandler.SourceIdentity(recordURL))
	return filepath.Join(dir, fileName), nil
}

func (hs *HistoryStore) readRecords(filePath string) ([]models.FetchRecord, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil
	}

	records, err := parquet.ReadFile[models.FetchRecord](filePath)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to read parquet history file "+filePath)
	}
	return records, nil
}

func (hs *HistoryStore) writeRecords(filePath string, records []models.FetchRecord) error {
	file, err := os.Create(filePath)
	if err != nil {
		return errorwrapper.NewStorageError("create", filePath, err)
	}

	writer := parquet.NewGenericWriter[models.FetchRecord](file, hs.compressionOption())
	if _, err := writer.Write(records); err != nil {
		file.Close()
		return errorwrapper.NewStorageError("write", filePath, err)
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return errorwrapper.NewStorageError("close writer", filePath, err)
	}
	if err := file.Close(); err != nil {
		return errorwrapper.NewStorageError("close", filePath, err)
	}

	hs.logger.Debug().
		Str("file_path", filePath).
		Int("records", len(records)).
		Msg("History file rewritten")

	return nil
}

func (hs *HistoryStore) compressionOption() parquet.WriterOption {
	switch strings.ToLower(hs.codec) {
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	case "none":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}
