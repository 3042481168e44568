package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/aleister1102/schedwatch/internal/common/errorwrapper"
	"github.com/aleister1102/schedwatch/internal/config"
	"github.com/aleister1102/schedwatch/internal/datastore"
	"github.com/aleister1102/schedwatch/internal/models"
	"github.com/aleister1102/schedwatch/internal/rasterizer"
	"github.com/aleister1102/schedwatch/internal/rslimiter"
	"github.com/aleister1102/schedwatch/internal/urlhandler"

	"github.com/rs/zerolog"
)

// pollJob wraps a source and the WaitGroup of its polling cycle.
type pollJob struct {
	Source  *models.TrackedSource
	CycleWG *sync.WaitGroup
}

// Poller drives periodic checks of all tracked sources. Each cycle fans out
// to a fixed worker pool and joins before the aggregate is reported, so
// cycles never overlap even when individual fetches run long.
type Poller struct {
	logger       zerolog.Logger
	cfg          *config.MonitorConfig
	tracker      *ChangeTracker
	cycleTracker *CycleTracker
	limiter      *rslimiter.ResourceLimiter
	cycleDB      *datastore.CycleDB
	raster       rasterizer.Rasterizer
	sources      []*models.TrackedSource

	workerChan chan pollJob
	wg         sync.WaitGroup
}

// PollerBuilder assembles a Poller with optional collaborators.
type PollerBuilder struct {
	poller *Poller
	err    error
}

// NewPollerBuilder creates a builder with the required collaborators.
func NewPollerBuilder(cfg *config.MonitorConfig, tracker *ChangeTracker, logger zerolog.Logger) *PollerBuilder {
	return &PollerBuilder{
		poller: &Poller{
			logger:  logger.With().Str("component", "Poller").Logger(),
			cfg:     cfg,
			tracker: tracker,
		},
	}
}

// WithResourceLimiter enables pre-cycle resource checks.
func (b *PollerBuilder) WithResourceLimiter(limiter *rslimiter.ResourceLimiter) *PollerBuilder {
	b.poller.limiter = limiter
	return b
}

// WithCycleDB enables cycle history persistence.
func (b *PollerBuilder) WithCycleDB(db *datastore.CycleDB) *PollerBuilder {
	b.poller.cycleDB = db
	return b
}

// WithRasterizer enables rasterization of newly saved artifacts.
func (b *PollerBuilder) WithRasterizer(r rasterizer.Rasterizer) *PollerBuilder {
	b.poller.raster = r
	return b
}

// WithSources sets the tracked sources directly, bypassing URL parsing.
func (b *PollerBuilder) WithSources(sources []*models.TrackedSource) *PollerBuilder {
	b.poller.sources = sources
	return b
}

// WithURLs builds tracked sources from raw URLs.
func (b *PollerBuilder) WithURLs(urls []string) *PollerBuilder {
	sources, err := BuildTrackedSources(urls)
	if err != nil {
		b.err = err
		return b
	}
	b.poller.sources = sources
	return b
}

// Build validates and returns the Poller.
func (b *PollerBuilder) Build() (*Poller, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.poller.tracker == nil {
		return nil, errorwrapper.NewValidationError("tracker", nil, "change tracker is required")
	}
	if len(b.poller.sources) == 0 {
		return nil, errorwrapper.NewValidationError("monitor_urls", nil, "at least one URL to monitor is required")
	}
	b.poller.cycleTracker = NewCycleTracker(b.poller.cfg.MaxCycles)
	return b.poller, nil
}

// BuildTrackedSources normalizes raw URLs into tracked sources.
func BuildTrackedSources(urls []string) ([]*models.TrackedSource, error) {
	sources := make([]*models.TrackedSource, 0, len(urls))
	for _, rawURL := range urls {
		normalized, err := urlhandler.NormalizeURL(rawURL)
		if err != nil {
			return nil, errorwrapper.WrapError(err, "normalizing monitor URL: "+rawURL)
		}
		sources = append(sources, &models.TrackedSource{
			URL:       normalized,
			Identity:  urlhandler.SourceIdentity(normalized),
			Extension: urlhandler.SourceExtension(normalized),
		})
	}
	return sources, nil
}

// Run starts the worker pool and the polling loop. It checks all sources once
// immediately, then on every interval tick, and blocks until ctx is cancelled
// or the configured cycle limit is reached.
func (p *Poller) Run(ctx context.Context) error {
	numWorkers := p.cfg.MaxConcurrentChecks
	if numWorkers <= 0 {
		p.logger.Warn().Int("configured_workers", p.cfg.MaxConcurrentChecks).Msg("MaxConcurrentChecks is not configured, defaulting to 1 worker")
		numWorkers = 1
	}
	p.workerChan = make(chan pollJob, numWorkers)

	p.logger.Info().
		Int("num_workers", numWorkers).
		Int("source_count", len(p.sources)).
		Dur("check_interval", p.cfg.CheckInterval()).
		Msg("Starting poller")

	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	ticker := time.NewTicker(p.cfg.CheckInterval())
	defer func() {
		ticker.Stop()
		close(p.workerChan)
		p.wg.Wait()
		p.logger.Info().Msg("Poller stopped")
	}()

	// First pass runs immediately so a fresh start establishes baselines
	// without waiting a full interval.
	p.runCycle(ctx)

	for {
		if !p.cycleTracker.ShouldContinue() {
			p.logger.Info().Int("cycles", p.cycleTracker.CompletedCycles()).Msg("Cycle limit reached, poller exiting")
			return nil
		}
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Context cancelled, poller main loop stopping")
			return ctx.Err()
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

// runCycle dispatches one check per source and waits for all of them before
// reporting the aggregate.
func (p *Poller) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	cycleID := p.cycleTracker.StartCycle()
	cycleLogger := p.logger.With().Str("cycle_id", cycleID).Logger()

	var dbID int64
	if p.cycleDB != nil {
		var err error
		dbID, err = p.cycleDB.RecordCycleStart(cycleID, time.Now())
		if err != nil {
			cycleLogger.Error().Err(err).Msg("Failed to record cycle start")
		}
	}

	if p.limiter != nil && !p.limiter.AllowCycle() {
		cycleLogger.Warn().Msg("Resource limits exceeded, skipping this cycle")
		p.recordCycleEnd(cycleLogger, dbID, datastore.CycleStatusSkipped, CycleSummary{})
		return
	}

	cycleLogger.Debug().Int("source_count", len(p.sources)).Msg("Distributing checks to workers")

	var cycleWG sync.WaitGroup
	cycleWG.Add(len(p.sources))
	for _, source := range p.sources {
		job := pollJob{Source: source, CycleWG: &cycleWG}
		select {
		case p.workerChan <- job:
		case <-ctx.Done():
			cycleLogger.Info().Str("url", source.URL).Msg("Context cancelled during job submission")
			cycleWG.Done()
		}
	}
	cycleWG.Wait()

	summary := p.cycleTracker.Summary()
	p.reportCycle(cycleLogger, summary)
	p.rasterizeArtifacts(ctx, cycleLogger, summary)

	status := datastore.CycleStatusCompleted
	if ctx.Err() != nil {
		status = datastore.CycleStatusAborted
	}
	p.recordCycleEnd(cycleLogger, dbID, status, summary)
}

// reportCycle emits the aggregate line for a finished cycle. First
// observations establish baselines and do not count as updates.
func (p *Poller) reportCycle(cycleLogger zerolog.Logger, summary CycleSummary) {
	event := cycleLogger.Info().
		Int("changed", summary.Changed).
		Int("first_seen", summary.FirstSeen).
		Int("unchanged", summary.Unchanged).
		Int("failed", summary.Failed)

	if summary.UpdatesFound() {
		event.Strs("changed_urls", summary.ChangedURLs).Msg("Cycle completed: updates found")
	} else {
		event.Msg("Cycle completed: no updates")
	}
}

// rasterizeArtifacts hands every artifact saved this cycle to the configured
// rasterizer. Rasterization failures are logged and never affect tracking
// state.
func (p *Poller) rasterizeArtifacts(ctx context.Context, cycleLogger zerolog.Logger, summary CycleSummary) {
	if p.raster == nil {
		return
	}
	for _, artifactPath := range summary.SavedArtifacts {
		if err := p.raster.Rasterize(ctx, artifactPath); err != nil {
			cycleLogger.Error().Err(err).Str("artifact_path", artifactPath).Msg("Failed to rasterize artifact")
		}
	}
}

func (p *Poller) recordCycleEnd(cycleLogger zerolog.Logger, dbID int64, status string, summary CycleSummary) {
	if p.cycleDB == nil || dbID == 0 {
		return
	}
	if err := p.cycleDB.RecordCycleEnd(dbID, time.Now(), status, summary.Changed, summary.FirstSeen, summary.Failed); err != nil {
		cycleLogger.Error().Err(err).Msg("Failed to record cycle end")
	}
}

// worker consumes jobs until the channel closes. After cancellation it keeps
// draining so every queued job still releases its cycle's WaitGroup.
func (p *Poller) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	p.logger.Debug().Int("worker_id", id).Msg("Poll worker started")
	for job := range p.workerChan {
		select {
		case <-ctx.Done():
			job.CycleWG.Done()
			continue
		default:
		}
		eval := p.tracker.Evaluate(ctx, job.Source)
		p.cycleTracker.Record(eval)
		job.CycleWG.Done()
	}
	p.logger.Debug().Int("worker_id", id).Msg("Poll worker stopped")
}
