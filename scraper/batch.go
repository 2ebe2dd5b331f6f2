package scraper

import (
	"context"
	"log/slog"

	"shopharvest/browser"
	"shopharvest/config"
	"shopharvest/models"
)

// SessionFactory launches the shared browser session for one batch.
type SessionFactory func(ctx context.Context) (browser.Session, error)

// Coordinator runs the pagination driver (or single-page harvester) across
// a list of input URLs, isolating per-URL failures so one bad URL never
// aborts the batch.
type Coordinator struct {
	cfg        *config.Config
	metrics    *Metrics
	harvester  *Harvester
	static     *StaticHarvester
	newSession SessionFactory
}

// NewCoordinator builds a batch coordinator. newSession is only invoked in
// browser render mode.
func NewCoordinator(cfg *config.Config, metrics *Metrics, newSession SessionFactory) *Coordinator {
	return &Coordinator{
		cfg:        cfg,
		metrics:    metrics,
		harvester:  NewHarvester(cfg, metrics),
		static:     NewStaticHarvester(cfg, metrics),
		newSession: newSession,
	}
}

// RunBatch processes urls strictly sequentially and aggregates records and
// per-URL errors. The only fatal failure is SessionInitError: without a
// browser session no harvesting is possible.
func (c *Coordinator) RunBatch(ctx context.Context, urls []string) (*models.BatchResult, error) {
	result := &models.BatchResult{
		Errors: make(map[string]string),
		Stats: models.BatchStats{
			ByReason: make(map[models.TerminationReason]int),
		},
	}

	var session browser.Session
	if c.cfg.RenderMode == config.RenderBrowser {
		launched, err := c.newSession(ctx)
		if err != nil {
			wrapped := SessionInitError{Err: err}
			c.metrics.IncError(errorTypeLabel(wrapped))
			return nil, wrapped
		}
		session = launched
		defer session.Close()
	}

	for _, sourceURL := range urls {
		run, err := c.harvestURL(ctx, session, sourceURL)
		result.Runs = append(result.Runs, run)
		result.Stats.ByReason[run.Terminated]++

		if len(run.Records) == 0 && err != nil {
			slog.Error("url failed entirely",
				slog.String("url", sourceURL),
				slog.Any("error", err),
			)
			result.Errors[sourceURL] = err.Error()
			continue
		}
		if err != nil {
			slog.Warn("url truncated by error, keeping harvested pages",
				slog.String("url", sourceURL),
				slog.Int("records", len(run.Records)),
				slog.Any("error", err),
			)
		}
		result.AllRecords = append(result.AllRecords, run.Records...)
	}

	result.Stats.TotalRecords = len(result.AllRecords)
	return result, nil
}

func (c *Coordinator) harvestURL(ctx context.Context, session browser.Session, sourceURL string) (*models.HarvestRun, error) {
	harvest, release, err := c.harvestFunc(session)
	if err != nil {
		return &models.HarvestRun{
			SourceURL:  sourceURL,
			Terminated: models.TerminatedError,
		}, err
	}
	defer release()

	if c.cfg.AutoPaginate {
		return c.harvester.HarvestAll(ctx, sourceURL, harvest)
	}

	records, err := harvest(ctx, sourceURL)
	run := &models.HarvestRun{
		SourceURL:    sourceURL,
		PagesVisited: 1,
		Records:      records,
		Terminated:   models.TerminatedSinglePage,
	}
	if err != nil {
		run.Terminated = models.TerminatedError
		run.Records = nil
	}
	return run, err
}

// harvestFunc picks the browser or static path. In browser mode a fresh tab
// context is opened per source URL and released on all paths.
func (c *Coordinator) harvestFunc(session browser.Session) (HarvestFunc, func(), error) {
	if session == nil {
		return c.static.HarvestPage, func() {}, nil
	}

	page, err := session.NewPage()
	if err != nil {
		return nil, nil, err
	}
	harvest := func(ctx context.Context, pageURL string) ([]*models.ListingRecord, error) {
		return c.harvester.HarvestPage(ctx, page, pageURL)
	}
	return harvest, page.Close, nil
}
