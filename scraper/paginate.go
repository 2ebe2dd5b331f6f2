package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"shopharvest/models"
)

// HarvestFunc harvests a single fully-rendered page.
type HarvestFunc func(ctx context.Context, pageURL string) ([]*models.ListingRecord, error)

// HarvestAll walks consecutive result pages by mutating the page-number
// query parameter, accumulating records until an empty page, an error, or
// the safety page ceiling. The returned error is the one that stopped
// pagination; records harvested before it are kept on the run.
func (h *Harvester) HarvestAll(ctx context.Context, seedURL string, harvest HarvestFunc) (*models.HarvestRun, error) {
	run := &models.HarvestRun{SourceURL: seedURL}

	parsed, err := url.Parse(seedURL)
	if err != nil {
		run.Terminated = models.TerminatedError
		return run, err
	}

	query := parsed.Query()
	startPage := 1
	if raw := query.Get(h.cfg.PageParam); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			startPage = n
		}
	} else {
		slog.Debug("seed url has no page parameter; synthesizing",
			slog.String("url", seedURL),
			slog.String("param", h.cfg.PageParam),
		)
	}
	for _, param := range h.cfg.RequiredParams {
		if !query.Has(param) {
			slog.Warn("seed url missing expected query parameter; pagination fidelity may be reduced",
				slog.String("url", seedURL),
				slog.String("param", param),
			)
		}
	}

	limiter := rate.NewLimiter(rate.Every(h.cfg.PolitenessDelay), 1)
	if h.cfg.PolitenessDelay <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	for pageNo := startPage; ; pageNo++ {
		if err := limiter.Wait(ctx); err != nil {
			run.Terminated = models.TerminatedError
			return run, err
		}

		query.Set(h.cfg.PageParam, strconv.Itoa(pageNo))
		parsed.RawQuery = query.Encode()
		pageURL := parsed.String()

		records, err := harvest(ctx, pageURL)
		run.PagesVisited++

		// A page past the end of the results renders no listing containers;
		// that is the empty-page stop signal, not a failure. When even the
		// first page is empty the error is kept as the diagnostic for the
		// batch coordinator.
		var noListings NoListingsError
		if errors.As(err, &noListings) {
			run.Terminated = models.TerminatedEmptyPage
			if len(run.Records) == 0 {
				return run, err
			}
			return run, nil
		}
		if err != nil {
			slog.Warn("pagination stopped by error",
				slog.String("url", pageURL),
				slog.Int("pages_kept", run.PagesVisited-1),
				slog.Any("error", err),
			)
			run.Terminated = models.TerminatedError
			return run, err
		}
		if len(records) == 0 {
			run.Terminated = models.TerminatedEmptyPage
			return run, nil
		}

		run.Records = append(run.Records, records...)
		if run.PagesVisited >= h.cfg.MaxPages {
			slog.Info("pagination reached page ceiling",
				slog.String("url", seedURL),
				slog.Int("pages", run.PagesVisited),
			)
			run.Terminated = models.TerminatedPageLimit
			return run, nil
		}
	}
}
