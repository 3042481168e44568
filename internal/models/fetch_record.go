package models

// FetchRecord defines the schema for the append-only parquet fetch history.
// Timestamps are stored as int64 UnixMilli per parquet-go conventions.
// The history is an audit surface: it is never read back to seed fingerprints.
type FetchRecord struct {
	URL          string  `parquet:"url"`
	Fingerprint  string  `parquet:"fingerprint"`
	Outcome      string  `parquet:"outcome"`
	ContentType  *string `parquet:"content_type,optional"`
	PayloadSize  int64   `parquet:"payload_size"`
	ArtifactPath *string `parquet:"artifact_path,optional"`
	FetchedAt    int64   `parquet:"fetched_at"`
}

// StringPtrOrNil returns a pointer to s, or nil when s is empty.
func StringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
