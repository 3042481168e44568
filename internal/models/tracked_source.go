package models

import (
	"time"
)

// TrackedSource is one monitored URL together with its last known content
// fingerprint. The poller owns the collection of sources; each source is
// mutated only by its own evaluation, at most once per cycle, so no locking
// is needed as long as cycles do not overlap.
//
// Fingerprint state is in-memory only. A restart re-initializes every source
// to "never observed" and the first successful fetch re-baselines it.
type TrackedSource struct {
	URL              string
	Identity         string // trailing path segment, extension stripped
	Extension        string // artifact extension including the dot
	LastFingerprint  string // empty means never observed
	LastArtifactPath string // most recently saved artifact, used for diffing
}

// Observed reports whether the source has a recorded fingerprint.
func (s *TrackedSource) Observed() bool {
	return s.LastFingerprint != ""
}

// FetchResult holds the payload of a single successful retrieval. It is
// transient: produced and consumed within one evaluation, never retained.
type FetchResult struct {
	Payload     []byte
	ContentType string
	StatusCode  int
	RetrievedAt time.Time
}

// IsEmpty reports whether the fetch yielded a zero-byte payload.
func (fr *FetchResult) IsEmpty() bool {
	return len(fr.Payload) == 0
}
