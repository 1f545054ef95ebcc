// Package scraper orchestrates the fetch → extract → normalize pipeline over
// the URL list from a sitemap.
package scraper

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nwbort/stores-kmart/internal/extract"
	"github.com/nwbort/stores-kmart/internal/fetcher"
	"github.com/nwbort/stores-kmart/internal/model"
	"github.com/nwbort/stores-kmart/internal/pagecache"
)

// Opts configures a single batch run.
type Opts struct {
	// Workers is the concurrency limit. Ignored in sequential mode.
	Workers int
	// Sequential processes URLs one at a time with Delay between requests.
	Sequential bool
	// Delay is the politeness throttle between sequential requests.
	Delay time.Duration
	// Timeout bounds each page fetch.
	Timeout time.Duration
}

// Failure records one URL that could not be processed. Index is the URL's
// 1-based position in the input list.
type Failure struct {
	Index  int    `json:"index"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Result is the outcome of a batch run. Records is sorted ascending by
// locationId, with records missing one first.
type Result struct {
	RunID    string
	Records  []model.StoreRecord
	Failures []Failure
	Elapsed  time.Duration
}

// WriteSummary writes the success/failure counts and per-failure lines. The
// caller points this at the diagnostic stream, never at the JSON output.
func (r *Result) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "Extracted %d stores\n", len(r.Records))
	if len(r.Failures) > 0 {
		fmt.Fprintf(w, "Failed to extract %d stores:\n", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  [%d] %s: %s\n", f.Index, f.URL, f.Reason)
		}
	}
}

// Engine runs batches against a fetcher, optionally backed by a page cache.
type Engine struct {
	fetcher fetcher.Fetcher
	cache   *pagecache.Cache
}

// NewEngine creates an engine. cache may be nil to fetch every page.
func NewEngine(f fetcher.Fetcher, cache *pagecache.Cache) *Engine {
	return &Engine{fetcher: f, cache: cache}
}

// outcome is one URL's completion, sent to the collecting consumer.
type outcome struct {
	index  int
	url    string
	record *model.StoreRecord
	err    error
}

// Run processes every URL and returns the aggregated result. Per-URL errors
// become Failure entries and never abort the batch; the only errors returned
// here are context cancellation in sequential mode. Concurrent and sequential
// modes produce the same sorted output for the same input.
func (e *Engine) Run(ctx context.Context, urls []string, opts Opts) (*Result, error) {
	if opts.Workers <= 0 {
		opts.Workers = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	runID := uuid.New().String()
	log := zap.L().With(
		zap.String("component", "scraper.engine"),
		zap.String("run_id", runID),
	)
	log.Info("starting batch",
		zap.Int("urls", len(urls)),
		zap.Bool("sequential", opts.Sequential),
		zap.Int("workers", opts.Workers),
	)
	start := time.Now()

	// Single consumer drains completions so the result slices have exactly
	// one writer.
	completions := make(chan outcome)
	collected := make(chan *Result)
	go func() {
		res := &Result{RunID: runID, Records: []model.StoreRecord{}}
		for out := range completions {
			if out.err != nil {
				res.Failures = append(res.Failures, Failure{
					Index:  out.index,
					URL:    out.url,
					Reason: out.err.Error(),
				})
				log.Debug("store failed",
					zap.Int("index", out.index),
					zap.String("url", out.url),
					zap.Error(out.err),
				)
				continue
			}
			res.Records = append(res.Records, *out.record)
			name := ""
			if out.record.PublicName != nil {
				name = *out.record.PublicName
			}
			log.Debug("store extracted",
				zap.Int("index", out.index),
				zap.Int("total", len(urls)),
				zap.String("name", name),
			)
		}
		collected <- res
	}()

	var runErr error
	if opts.Sequential {
		runErr = e.runSequential(ctx, urls, opts, completions)
	} else {
		e.runConcurrent(ctx, urls, opts, completions)
	}
	close(completions)

	res := <-collected
	model.SortRecords(res.Records)
	res.Elapsed = time.Since(start)

	log.Info("batch complete",
		zap.Int("extracted", len(res.Records)),
		zap.Int("failed", len(res.Failures)),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, runErr
}

// runSequential processes URLs one at a time. The inter-request delay is a
// courtesy throttle, realized as a rate limiter so the first request is not
// delayed.
func (e *Engine) runSequential(ctx context.Context, urls []string, opts Opts, completions chan<- outcome) error {
	var throttle *rate.Limiter
	if opts.Delay > 0 {
		throttle = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}

	for i, u := range urls {
		if throttle != nil {
			if err := throttle.Wait(ctx); err != nil {
				return eris.Wrap(err, "scraper: throttle wait")
			}
		}
		rec, err := e.processOne(ctx, u, opts.Timeout)
		completions <- outcome{index: i + 1, url: u, record: rec, err: err}
	}
	return nil
}

// runConcurrent processes URLs with a bounded worker pool. Workers share
// nothing but the completions channel.
func (e *Engine) runConcurrent(ctx context.Context, urls []string, opts Opts, completions chan<- outcome) {
	g := new(errgroup.Group)
	g.SetLimit(opts.Workers)

	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			rec, err := e.processOne(ctx, u, opts.Timeout)
			completions <- outcome{index: i + 1, url: u, record: rec, err: err}
			return nil
		})
	}

	_ = g.Wait()
}

// processOne runs the fetch → extract → normalize pipeline for a single URL.
func (e *Engine) processOne(ctx context.Context, url string, timeout time.Duration) (*model.StoreRecord, error) {
	page, err := e.fetchPage(ctx, url, timeout)
	if err != nil {
		return nil, err
	}

	payload, err := extract.Payload(page)
	if err != nil {
		return nil, err
	}

	return extract.Normalize(payload, url)
}

// fetchPage returns the page body, consulting the cache first when one is
// configured. Cache write failures are logged and otherwise ignored: a cold
// cache is not a reason to fail the URL.
func (e *Engine) fetchPage(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if e.cache != nil {
		body, hit, err := e.cache.Get(ctx, url)
		if err != nil {
			zap.L().Warn("page cache read failed", zap.String("url", url), zap.Error(err))
		} else if hit {
			return string(body), nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := e.fetcher.Download(fetchCtx, url)
	if err != nil {
		return "", eris.Wrapf(err, "fetch %s", url)
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return "", eris.Wrapf(err, "read %s", url)
	}

	if e.cache != nil {
		if err := e.cache.Put(ctx, url, data); err != nil {
			zap.L().Warn("page cache write failed", zap.String("url", url), zap.Error(err))
		}
	}

	return string(data), nil
}
