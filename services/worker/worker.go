package worker

import (
	"context"
	"time"

	"sjsage522/fundgrubenotifier/helpers"
	"sjsage522/fundgrubenotifier/internal/crawler"
	"sjsage522/fundgrubenotifier/internal/delta"
	"sjsage522/fundgrubenotifier/internal/filter"
	apperrors "sjsage522/fundgrubenotifier/pkg/errors"
	"sjsage522/fundgrubenotifier/services/notifier"
	"sjsage522/fundgrubenotifier/services/publisher"
)

// Worker runs the fetch, filter, merge and notify pipeline
type Worker struct {
	crawlers  []crawler.Crawler
	rulesPath string
	tracker   *delta.Tracker
	notifier  *notifier.Notifier
	publisher publisher.Publisher
	logger    helpers.LoggerInterface
}

// NewWorker creates a new worker. pub may be nil when no stream is configured
func NewWorker(
	crawlers []crawler.Crawler,
	rulesPath string,
	tracker *delta.Tracker,
	n *notifier.Notifier,
	pub publisher.Publisher,
	logger helpers.LoggerInterface,
) *Worker {
	return &Worker{
		crawlers:  crawlers,
		rulesPath: rulesPath,
		tracker:   tracker,
		notifier:  n,
		publisher: pub,
		logger:    logger,
	}
}

// Result summarises one run
type Result struct {
	NewCount int
	Records  []delta.Record
	Err      error
}

// RunOnce performs one pipeline run. Pipeline errors are logged and
// reported through the notifier; they are returned only for inspection
func (w *Worker) RunOnce(ctx context.Context) Result {
	start := time.Now()

	newCount, merged, err := w.run(ctx)
	if err != nil {
		w.logger.LogError("Pipeline", err)
	} else {
		w.logger.LogInfo("Run finished in %s: %d new of %d records", time.Since(start).Round(time.Millisecond), newCount, len(merged))
	}

	if notifyErr := w.notifier.Notify(ctx, newCount, merged, err); notifyErr != nil {
		w.logger.LogError("Notifier", notifyErr)
	}

	return Result{NewCount: newCount, Records: merged, Err: err}
}

// run crawls the retailers in order and stops at the first failure
func (w *Worker) run(ctx context.Context) (int, []delta.Record, error) {
	rules, err := filter.LoadRules(w.rulesPath)
	if err != nil {
		return 0, nil, err
	}

	var found []crawler.Product
	for _, c := range w.crawlers {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}

		products, err := c.FetchProducts(ctx)
		if err != nil {
			return 0, nil, err
		}

		matched := filter.ApplyAll(c.GetProvider(), products, rules)
		w.logger.LogInfo("%s: %d listings, %d matching", c.GetName(), len(products), len(matched))
		found = append(found, matched...)
	}

	newCount, merged, err := w.tracker.Update(ctx, filter.Dedupe(found))
	if err != nil {
		return 0, nil, apperrors.NewStorage("failed to update result set", err)
	}

	if w.publisher != nil {
		// publish failures do not fail the run
		if err := publisher.PublishRecords(ctx, w.publisher, merged[:newCount]); err != nil {
			w.logger.LogError("Publisher", err)
		}
	}

	return newCount, merged, nil
}
