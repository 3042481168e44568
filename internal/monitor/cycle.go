package monitor

import (
	"fmt"
	"sync"
	"time"
)

// CycleSummary aggregates outcomes of one completed polling cycle.
type CycleSummary struct {
	CycleID        string
	Changed        int
	FirstSeen      int
	Unchanged      int
	Failed         int
	ChangedURLs    []string
	SavedArtifacts []string
}

// UpdatesFound reports whether any source changed this cycle. First
// observations establish a baseline and are not counted as updates.
func (cs *CycleSummary) UpdatesFound() bool {
	return cs.Changed > 0
}

// CycleTracker tracks evaluations within a monitoring cycle.
type CycleTracker struct {
	mutex          sync.Mutex
	currentCycleID string
	currentCycle   int
	maxCycles      int
	summary        CycleSummary
}

// NewCycleTracker creates a new CycleTracker. maxCycles of 0 means the poller
// runs indefinitely.
func NewCycleTracker(maxCycles int) *CycleTracker {
	return &CycleTracker{
		maxCycles: maxCycles,
	}
}

// StartCycle begins a new cycle, increments the counter, and returns the new
// cycle ID.
func (ct *CycleTracker) StartCycle() string {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	ct.currentCycle++
	ct.currentCycleID = fmt.Sprintf("monitor-%s-%d", time.Now().Format("20060102-150405"), ct.currentCycle)
	ct.summary = CycleSummary{CycleID: ct.currentCycleID}
	return ct.currentCycleID
}

// Record adds one evaluation's outcome to the current cycle.
func (ct *CycleTracker) Record(eval Evaluation) {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	switch eval.Outcome {
	case OutcomeChanged:
		ct.summary.Changed++
		ct.summary.ChangedURLs = append(ct.summary.ChangedURLs, eval.Source.URL)
	case OutcomeFirstSeen:
		ct.summary.FirstSeen++
	case OutcomeFetchFailed:
		ct.summary.Failed++
	default:
		ct.summary.Unchanged++
	}

	if eval.ArtifactPath != "" {
		ct.summary.SavedArtifacts = append(ct.summary.SavedArtifacts, eval.ArtifactPath)
	}
}

// Summary returns a copy of the current cycle's aggregate.
func (ct *CycleTracker) Summary() CycleSummary {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	summary := ct.summary
	summary.ChangedURLs = append([]string(nil), ct.summary.ChangedURLs...)
	summary.SavedArtifacts = append([]string(nil), ct.summary.SavedArtifacts...)
	return summary
}

// CurrentCycleID returns the current cycle ID.
func (ct *CycleTracker) CurrentCycleID() string {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()
	return ct.currentCycleID
}

// CompletedCycles returns how many cycles have been started.
func (ct *CycleTracker) CompletedCycles() int {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()
	return ct.currentCycle
}

// ShouldContinue returns false once the maximum number of cycles is reached.
func (ct *CycleTracker) ShouldContinue() bool {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	if ct.maxCycles == 0 {
		return true
	}
	return ct.currentCycle < ct.maxCycles
}
