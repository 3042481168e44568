package monitor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/schedwatch/internal/config"
	"github.com/aleister1102/schedwatch/internal/datastore"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTrackedSources(t *testing.T) {
	sources, err := BuildTrackedSources([]string{
		"https://rasp.example.edu/data/spo.pdf",
		"https://rasp.example.edu/data/npo.pdf",
	})
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, "spo", sources[0].Identity)
	assert.Equal(t, ".pdf", sources[0].Extension)
	assert.Equal(t, "npo", sources[1].Identity)
	assert.False(t, sources[0].Observed())
}

func TestBuildTrackedSourcesInvalidURL(t *testing.T) {
	_, err := BuildTrackedSources([]string{"://not-a-url"})
	assert.Error(t, err)
}

func TestPollerBuilderRequiresSources(t *testing.T) {
	cfg := config.NewDefaultMonitorConfig()
	fixture := newTrackerFixture(t, []byte("x"), "")

	_, err := NewPollerBuilder(&cfg, fixture.tracker, zerolog.Nop()).Build()
	assert.Error(t, err)
}

func TestPollerBuilderRequiresTracker(t *testing.T) {
	cfg := config.NewDefaultMonitorConfig()

	_, err := NewPollerBuilder(&cfg, nil, zerolog.Nop()).
		WithURLs([]string{"https://rasp.example.edu/spo.pdf"}).
		Build()
	assert.Error(t, err)
}

// Two sources, two cycles: the first cycle establishes both baselines, one
// source changes before the second cycle and only it gets a new artifact.
func TestPollerRunDetectsChangesAcrossCycles(t *testing.T) {
	fixture := newTrackerFixture(t, []byte("timetable v1"), "text/plain")

	cfg := config.NewDefaultMonitorConfig()
	cfg.CheckIntervalSeconds = 1
	cfg.MaxCycles = 2
	cfg.MaxConcurrentChecks = 2

	sources, err := BuildTrackedSources([]string{
		fixture.server.URL + "/spo.pdf",
		fixture.server.URL + "/npo.pdf",
	})
	require.NoError(t, err)

	cycleDB, err := datastore.NewCycleDB(filepath.Join(t.TempDir(), "cycles.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cycleDB.Close() })

	poller, err := NewPollerBuilder(&cfg, fixture.tracker, zerolog.Nop()).
		WithSources(sources).
		WithCycleDB(cycleDB).
		Build()
	require.NoError(t, err)

	// The backend serves the same body for every path, so flipping the
	// payload after the baseline cycle changes both sources at once; the
	// grace sleep keeps the flip between the two cycles.
	go func() {
		time.Sleep(400 * time.Millisecond)
		fixture.backend.setPayload([]byte("timetable v2"))
	}()

	done := make(chan error, 1)
	go func() { done <- poller.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("poller did not stop after reaching the cycle limit")
	}

	// Cycle 1: first_seen x2, one artifact each. Cycle 2: changed x2.
	assert.Equal(t, 2, fixture.artifactCount(t, "spo"))
	assert.Equal(t, 2, fixture.artifactCount(t, "npo"))
	assert.Equal(t, Fingerprint([]byte("timetable v2")), sources[0].LastFingerprint)
	assert.Equal(t, Fingerprint([]byte("timetable v2")), sources[1].LastFingerprint)

	entries, err := cycleDB.GetRecentCycles(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, datastore.CycleStatusCompleted, entry.Status)
	}

	var totalChanged, totalFirstSeen int
	for _, entry := range entries {
		totalChanged += entry.ChangedCount
		totalFirstSeen += entry.FirstSeenCount
	}
	assert.Equal(t, 2, totalChanged)
	assert.Equal(t, 2, totalFirstSeen)
}

func TestPollerRunStopsOnCancellation(t *testing.T) {
	fixture := newTrackerFixture(t, []byte("timetable v1"), "text/plain")

	cfg := config.NewDefaultMonitorConfig()
	cfg.CheckIntervalSeconds = 60
	cfg.MaxConcurrentChecks = 1

	poller, err := NewPollerBuilder(&cfg, fixture.tracker, zerolog.Nop()).
		WithURLs([]string{fixture.server.URL + "/spo.pdf"}).
		Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop after cancellation")
	}

	// The initial pass ran before cancellation.
	assert.Equal(t, 1, fixture.artifactCount(t, "spo"))
}

// One slow source must not be dropped from the cycle aggregate: the join
// waits for every evaluation before the summary is recorded.
func TestPollerCycleJoinsSlowSource(t *testing.T) {
	fixture := newTrackerFixture(t, []byte("timetable v1"), "text/plain")
	fixture.backend.setDelay("/slow.pdf", 600*time.Millisecond)

	cfg := config.NewDefaultMonitorConfig()
	cfg.CheckIntervalSeconds = 60
	cfg.MaxCycles = 1
	cfg.MaxConcurrentChecks = 2

	sources, err := BuildTrackedSources([]string{
		fixture.server.URL + "/fast.pdf",
		fixture.server.URL + "/slow.pdf",
	})
	require.NoError(t, err)

	cycleDB, err := datastore.NewCycleDB(filepath.Join(t.TempDir(), "cycles.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cycleDB.Close() })

	poller, err := NewPollerBuilder(&cfg, fixture.tracker, zerolog.Nop()).
		WithSources(sources).
		WithCycleDB(cycleDB).
		Build()
	require.NoError(t, err)

	startedAt := time.Now()
	require.NoError(t, poller.Run(context.Background()))
	elapsed := time.Since(startedAt)

	assert.GreaterOrEqual(t, elapsed, 600*time.Millisecond)
	assert.True(t, sources[0].Observed())
	assert.True(t, sources[1].Observed())

	entries, err := cycleDB.GetRecentCycles(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, datastore.CycleStatusCompleted, entries[0].Status)
	assert.Equal(t, 2, entries[0].FirstSeenCount)
	require.True(t, entries[0].EndTime.Valid)
	assert.False(t, entries[0].EndTime.Time.Before(entries[0].StartTime))
}

func TestPollerFetchFailureDoesNotBlockSiblings(t *testing.T) {
	fixture := newTrackerFixture(t, []byte("timetable v1"), "text/plain")

	cfg := config.NewDefaultMonitorConfig()
	cfg.CheckIntervalSeconds = 60
	cfg.MaxCycles = 1
	cfg.MaxConcurrentChecks = 2

	sources, err := BuildTrackedSources([]string{
		fixture.server.URL + "/spo.pdf",
		"http://127.0.0.1:1/unreachable.pdf",
	})
	require.NoError(t, err)

	poller, err := NewPollerBuilder(&cfg, fixture.tracker, zerolog.Nop()).
		WithSources(sources).
		Build()
	require.NoError(t, err)

	require.NoError(t, poller.Run(context.Background()))

	assert.Equal(t, 1, fixture.artifactCount(t, "spo"))
	assert.True(t, sources[0].Observed())
	assert.False(t, sources[1].Observed())
}
