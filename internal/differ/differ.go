package differ

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffConfig controls diff generation behaviour.
type DiffConfig struct {
	EnableLineBasedDiff   bool
	EnableSemanticCleanup bool
	MaxDiffContentSize    int // bytes; larger payloads are reported without a diff
}

// DefaultDiffConfig returns the default diff configuration.
func DefaultDiffConfig() DiffConfig {
	return DiffConfig{
		EnableLineBasedDiff:   true,
		EnableSemanticCleanup: true,
		MaxDiffContentSize:    4 * 1024 * 1024,
	}
}

// ContentDiffResult summarizes the difference between two payload versions.
type ContentDiffResult struct {
	ContentType  string
	OldHash      string
	NewHash      string
	LinesAdded   int
	LinesDeleted int
	IsIdentical  bool
	TooLarge     bool
	ProcessTime  time.Duration
}

// ContentDiffer generates differences between content versions of a monitored
// document. Only text-like payloads are diffed; binary formats are compared by
// fingerprint alone.
type ContentDiffer struct {
	dmp    *diffmatchpatch.DiffMatchPatch
	config DiffConfig
	logger zerolog.Logger
}

// NewContentDiffer creates a new ContentDiffer.
func NewContentDiffer(cfg DiffConfig, logger zerolog.Logger) *ContentDiffer {
	return &ContentDiffer{
		dmp:    diffmatchpatch.New(),
		config: cfg,
		logger: logger.With().Str("component", "ContentDiffer").Logger(),
	}
}

// IsDiffableContentType reports whether the content type is text-like enough
// to produce a meaningful line diff.
func IsDiffableContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	if strings.HasPrefix(ct, "text/") {
		return true
	}
	switch {
	case strings.Contains(ct, "json"),
		strings.Contains(ct, "xml"),
		strings.Contains(ct, "javascript"),
		strings.Contains(ct, "csv"):
		return true
	}
	return false
}

// GenerateDiff compares two content versions and returns a structured summary.
func (cd *ContentDiffer) GenerateDiff(previousContent, currentContent []byte, contentType, oldHash, newHash string) *ContentDiffResult {
	startTime := time.Now()

	result := &ContentDiffResult{
		ContentType: contentType,
		OldHash:     oldHash,
		NewHash:     newHash,
	}

	if len(previousContent) > cd.config.MaxDiffContentSize || len(currentContent) > cd.config.MaxDiffContentSize {
		result.TooLarge = true
		result.ProcessTime = time.Since(startTime)
		return result
	}

	diffs := cd.dmp.DiffMain(string(previousContent), string(currentContent), cd.config.EnableLineBasedDiff)
	if cd.config.EnableSemanticCleanup {
		diffs = cd.dmp.DiffCleanupSemantic(diffs)
	}

	result.IsIdentical = true
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			result.LinesAdded += countLines(diff.Text)
			result.IsIdentical = false
		case diffmatchpatch.DiffDelete:
			result.LinesDeleted += countLines(diff.Text)
			result.IsIdentical = false
		}
	}

	result.ProcessTime = time.Since(startTime)

	cd.logger.Debug().
		Int("lines_added", result.LinesAdded).
		Int("lines_deleted", result.LinesDeleted).
		Bool("identical", result.IsIdentical).
		Msg("Content diff generated")

	return result
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
