package monitor

import (
	"testing"

	"github.com/aleister1102/schedwatch/internal/models"

	"github.com/stretchr/testify/assert"
)

func evalFor(url string, outcome ChangeOutcome, artifactPath string) Evaluation {
	return Evaluation{
		Source:       &models.TrackedSource{URL: url},
		Outcome:      outcome,
		ArtifactPath: artifactPath,
	}
}

func TestCycleTrackerCounts(t *testing.T) {
	ct := NewCycleTracker(0)
	cycleID := ct.StartCycle()
	assert.NotEmpty(t, cycleID)
	assert.Equal(t, cycleID, ct.CurrentCycleID())

	ct.Record(evalFor("http://a/spo.pdf", OutcomeChanged, "/tmp/spo_1.pdf"))
	ct.Record(evalFor("http://a/npo.pdf", OutcomeFirstSeen, "/tmp/npo_1.pdf"))
	ct.Record(evalFor("http://a/other.pdf", OutcomeUnchanged, ""))
	ct.Record(evalFor("http://a/broken.pdf", OutcomeFetchFailed, ""))

	summary := ct.Summary()
	assert.Equal(t, cycleID, summary.CycleID)
	assert.Equal(t, 1, summary.Changed)
	assert.Equal(t, 1, summary.FirstSeen)
	assert.Equal(t, 1, summary.Unchanged)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"http://a/spo.pdf"}, summary.ChangedURLs)
	assert.ElementsMatch(t, []string{"/tmp/spo_1.pdf", "/tmp/npo_1.pdf"}, summary.SavedArtifacts)
	assert.True(t, summary.UpdatesFound())
}

func TestCycleTrackerFirstObservationIsNotAnUpdate(t *testing.T) {
	ct := NewCycleTracker(0)
	ct.StartCycle()

	ct.Record(evalFor("http://a/spo.pdf", OutcomeFirstSeen, "/tmp/spo_1.pdf"))
	ct.Record(evalFor("http://a/npo.pdf", OutcomeFirstSeen, "/tmp/npo_1.pdf"))

	summary := ct.Summary()
	assert.Equal(t, 2, summary.FirstSeen)
	assert.False(t, summary.UpdatesFound())
}

func TestCycleTrackerStartCycleResetsSummary(t *testing.T) {
	ct := NewCycleTracker(0)
	ct.StartCycle()
	ct.Record(evalFor("http://a/spo.pdf", OutcomeChanged, "/tmp/spo_1.pdf"))

	secondID := ct.StartCycle()
	summary := ct.Summary()
	assert.Equal(t, secondID, summary.CycleID)
	assert.Equal(t, 0, summary.Changed)
	assert.Empty(t, summary.SavedArtifacts)
	assert.Equal(t, 2, ct.CompletedCycles())
}

func TestCycleTrackerShouldContinue(t *testing.T) {
	unbounded := NewCycleTracker(0)
	for i := 0; i < 5; i++ {
		unbounded.StartCycle()
	}
	assert.True(t, unbounded.ShouldContinue())

	bounded := NewCycleTracker(2)
	assert.True(t, bounded.ShouldContinue())
	bounded.StartCycle()
	assert.True(t, bounded.ShouldContinue())
	bounded.StartCycle()
	assert.False(t, bounded.ShouldContinue())
}
