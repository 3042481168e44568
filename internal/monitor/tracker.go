package monitor

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"time"

	"github.com/aleister1102/schedwatch/internal/datastore"
	"github.com/aleister1102/schedwatch/internal/differ"
	"github.com/aleister1102/schedwatch/internal/models"
	"github.com/rs/zerolog"
)

// ChangeOutcome classifies the result of evaluating one source in one cycle.
type ChangeOutcome int

const (
	// OutcomeUnchanged means the fetched content matched the stored fingerprint.
	OutcomeUnchanged ChangeOutcome = iota
	// OutcomeFirstSeen means the source had no fingerprint yet; a baseline was recorded.
	OutcomeFirstSeen
	// OutcomeChanged means the content differs from the stored fingerprint.
	OutcomeChanged
	// OutcomeFetchFailed means the fetch failed or returned an empty payload.
	// State is never advanced; behaviourally identical to Unchanged, visible
	// to the operator as a distinct outcome.
	OutcomeFetchFailed
)

// String returns the outcome name used in logs and history records.
func (o ChangeOutcome) String() string {
	switch o {
	case OutcomeFirstSeen:
		return "first_seen"
	case OutcomeChanged:
		return "changed"
	case OutcomeFetchFailed:
		return "fetch_failed"
	default:
		return "unchanged"
	}
}

// Evaluation is the result of one ChangeTracker.Evaluate call.
type Evaluation struct {
	Source       *models.TrackedSource
	Outcome      ChangeOutcome
	Fingerprint  string
	ArtifactPath string
	Diff         *differ.ContentDiffResult
	Err          error
	EvaluatedAt  time.Time
}

// ChangeTracker decides whether a source's content changed since the last
// observation and persists new versions. It mutates a source's fingerprint
// only after the artifact write succeeded, so a storage failure leaves the
// change to be re-detected on the next cycle.
type ChangeTracker struct {
	fetcher       *Fetcher
	artifactStore *datastore.ArtifactStore
	historyStore  *datastore.HistoryStore
	contentDiffer *differ.ContentDiffer
	logger        zerolog.Logger
}

// NewChangeTracker creates a new ChangeTracker. historyStore and
// contentDiffer may be nil; the corresponding side features are skipped.
func NewChangeTracker(
	fetcher *Fetcher,
	artifactStore *datastore.ArtifactStore,
	historyStore *datastore.HistoryStore,
	contentDiffer *differ.ContentDiffer,
	logger zerolog.Logger,
) *ChangeTracker {
	return &ChangeTracker{
		fetcher:       fetcher,
		artifactStore: artifactStore,
		historyStore:  historyStore,
		contentDiffer: contentDiffer,
		logger:        logger.With().Str("component", "ChangeTracker").Logger(),
	}
}

// Fingerprint computes the content fingerprint for a payload. MD5 is enough
// here: the requirement is change-detection distinctiveness, not collision
// resistance against an adversary.
func Fingerprint(payload []byte) string {
	sum := md5.Sum(payload)
	return hex.EncodeToString(sum[:])
}

// Evaluate fetches the source once and classifies the result. A fetch failure
// or empty payload never mutates state and never aborts sibling evaluations.
func (ct *ChangeTracker) Evaluate(ctx context.Context, source *models.TrackedSource) Evaluation {
	eval := Evaluation{
		Source:      source,
		EvaluatedAt: time.Now(),
	}

	fetchResult, err := ct.fetcher.Fetch(ctx, source.URL)
	if err != nil {
		eval.Outcome = OutcomeFetchFailed
		eval.Err = err
		ct.logger.Warn().Err(err).Str("url", source.URL).Msg("Fetch failed, treating as no change this cycle")
		ct.appendHistory(eval, nil)
		return eval
	}

	if fetchResult.IsEmpty() {
		eval.Outcome = OutcomeFetchFailed
		ct.logger.Warn().Str("url", source.URL).Msg("Fetched empty payload, treating as no change this cycle")
		ct.appendHistory(eval, fetchResult)
		return eval
	}

	eval.Fingerprint = Fingerprint(fetchResult.Payload)

	switch {
	case !source.Observed():
		eval.Outcome = OutcomeFirstSeen
	case eval.Fingerprint != source.LastFingerprint:
		eval.Outcome = OutcomeChanged
	default:
		eval.Outcome = OutcomeUnchanged
		ct.logger.Debug().Str("url", source.URL).Msg("Content unchanged")
		ct.appendHistory(eval, fetchResult)
		return eval
	}

	artifactPath, err := ct.artifactStore.Save(source.Identity, source.Extension, fetchResult.Payload, fetchResult.RetrievedAt)
	if err != nil {
		// Do not advance the fingerprint: the change is re-detected and the
		// write retried on the next cycle.
		ct.logger.Error().Err(err).Str("url", source.URL).Msg("Failed to persist artifact, keeping previous fingerprint")
		eval.Outcome = OutcomeUnchanged
		eval.Err = err
		return eval
	}
	eval.ArtifactPath = artifactPath

	if eval.Outcome == OutcomeChanged {
		eval.Diff = ct.diffAgainstPrevious(source, fetchResult)
	}

	previousFingerprint := source.LastFingerprint
	source.LastFingerprint = eval.Fingerprint
	source.LastArtifactPath = artifactPath

	ct.appendHistory(eval, fetchResult)
	ct.logEvaluation(eval, previousFingerprint)

	return eval
}

// diffAgainstPrevious produces a line-diff summary for text-like payloads by
// reading the previously saved artifact. Binary documents are compared by
// fingerprint alone.
func (ct *ChangeTracker) diffAgainstPrevious(source *models.TrackedSource, fetchResult *models.FetchResult) *differ.ContentDiffResult {
	if ct.contentDiffer == nil || source.LastArtifactPath == "" {
		return nil
	}
	if !differ.IsDiffableContentType(fetchResult.ContentType) {
		return nil
	}

	previousContent, err := os.ReadFile(source.LastArtifactPath)
	if err != nil {
		ct.logger.Warn().Err(err).Str("path", source.LastArtifactPath).Msg("Could not read previous artifact for diffing")
		return nil
	}

	newFingerprint := Fingerprint(fetchResult.Payload)
	return ct.contentDiffer.GenerateDiff(previousContent, fetchResult.Payload, fetchResult.ContentType, source.LastFingerprint, newFingerprint)
}

// appendHistory records the evaluation in the parquet fetch history. History
// is an audit surface; a failed append logs a warning and nothing more.
func (ct *ChangeTracker) appendHistory(eval Evaluation, fetchResult *models.FetchResult) {
	if ct.historyStore == nil {
		return
	}

	record := models.FetchRecord{
		URL:          eval.Source.URL,
		Fingerprint:  eval.Fingerprint,
		Outcome:      eval.Outcome.String(),
		ArtifactPath: models.StringPtrOrNil(eval.ArtifactPath),
		FetchedAt:    eval.EvaluatedAt.UnixMilli(),
	}
	if fetchResult != nil {
		record.ContentType = models.StringPtrOrNil(fetchResult.ContentType)
		record.PayloadSize = int64(len(fetchResult.Payload))
	}

	if err := ct.historyStore.StoreFetchRecord(record); err != nil {
		ct.logger.Warn().Err(err).Str("url", eval.Source.URL).Msg("Failed to append fetch history record")
	}
}

func (ct *ChangeTracker) logEvaluation(eval Evaluation, previousFingerprint string) {
	switch eval.Outcome {
	case OutcomeFirstSeen:
		ct.logger.Info().
			Str("url", eval.Source.URL).
			Str("fingerprint", eval.Fingerprint).
			Str("artifact", eval.ArtifactPath).
			Msg("Fingerprint initialized, baseline artifact saved")
	case OutcomeChanged:
		event := ct.logger.Info().
			Str("url", eval.Source.URL).
			Str("old_fingerprint", previousFingerprint).
			Str("new_fingerprint", eval.Fingerprint).
			Str("artifact", eval.ArtifactPath)
		if eval.Diff != nil && !eval.Diff.TooLarge {
			event = event.
				Int("lines_added", eval.Diff.LinesAdded).
				Int("lines_deleted", eval.Diff.LinesDeleted)
		}
		event.Msg("Change detected, new artifact saved")
	}
}
