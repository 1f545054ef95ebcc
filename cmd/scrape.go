package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nwbort/stores-kmart/internal/export"
	"github.com/nwbort/stores-kmart/internal/fetcher"
	"github.com/nwbort/stores-kmart/internal/geo"
	"github.com/nwbort/stores-kmart/internal/model"
	"github.com/nwbort/stores-kmart/internal/pagecache"
	"github.com/nwbort/stores-kmart/internal/scraper"
	"github.com/nwbort/stores-kmart/internal/sitemap"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape all stores from the sitemap",
	Long: `Scrape every store-location page listed in the sitemap and write the
normalized records as a JSON array, sorted by locationId.

Per-URL failures are reported on stderr and never abort the run; the exit
code is non-zero only when the sitemap itself is missing or unreadable.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyScrapeFlags(cmd)

		res, err := runBatch(ctx, cfg.Sitemap.Path)
		if err != nil {
			return err
		}

		// Counts and failure details always go to the diagnostic stream,
		// whatever the verbosity.
		res.WriteSummary(os.Stderr)

		if nearStr, _ := cmd.Flags().GetString("near"); nearStr != "" {
			origin, err := geo.ParseLatLon(nearStr)
			if err != nil {
				return err
			}
			geo.SortByDistance(res.Records, origin)
		}

		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		return writeRecords(res.Records, format, output)
	},
}

func init() {
	scrapeCmd.Flags().String("sitemap", "", "path to the store-location sitemap XML")
	scrapeCmd.Flags().IntP("workers", "w", 0, "number of parallel workers")
	scrapeCmd.Flags().Bool("sequential", false, "fetch one URL at a time with a politeness delay")
	scrapeCmd.Flags().Int("delay-ms", 0, "delay between sequential requests in milliseconds")
	scrapeCmd.Flags().String("format", "json", "output format: json, csv or xlsx")
	scrapeCmd.Flags().StringP("output", "o", "", "write output to a file instead of stdout")
	scrapeCmd.Flags().String("near", "", "lat,lon: sort output by distance from this point instead of locationId")
	scrapeCmd.Flags().String("cache", "", "sqlite page cache path (empty disables caching)")
	rootCmd.AddCommand(scrapeCmd)
}

// applyScrapeFlags folds explicitly-set flags over the loaded configuration.
func applyScrapeFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("sitemap") {
		cfg.Sitemap.Path, _ = cmd.Flags().GetString("sitemap")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Scrape.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("sequential") {
		cfg.Scrape.Sequential, _ = cmd.Flags().GetBool("sequential")
	}
	if cmd.Flags().Changed("delay-ms") {
		cfg.Scrape.DelayMS, _ = cmd.Flags().GetInt("delay-ms")
	}
	if cmd.Flags().Changed("cache") {
		cfg.Cache.Path, _ = cmd.Flags().GetString("cache")
	}
}

// runBatch reads the sitemap and processes every URL in it. A missing or
// unparsable sitemap is fatal; per-URL failures are not.
func runBatch(ctx context.Context, sitemapPath string) (*scraper.Result, error) {
	if _, err := os.Stat(sitemapPath); err != nil {
		return nil, eris.Wrapf(err, "sitemap file %q not found", sitemapPath)
	}

	urls, err := sitemap.ReadFile(sitemapPath)
	if err != nil {
		return nil, err
	}
	zap.L().Info("sitemap read", zap.String("path", sitemapPath), zap.Int("stores", len(urls)))

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.Scrape.UserAgent,
		Timeout:      time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.Scrape.MaxRetries,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})

	var cache *pagecache.Cache
	if cfg.Cache.Path != "" {
		cache, err = pagecache.New(cfg.Cache.Path, time.Duration(cfg.Cache.TTLHours)*time.Hour)
		if err != nil {
			return nil, err
		}
		defer cache.Close() //nolint:errcheck

		if n, err := cache.DeleteExpired(ctx); err != nil {
			zap.L().Warn("page cache cleanup failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Debug("expired cache entries removed", zap.Int64("count", n))
		}
	}

	engine := scraper.NewEngine(f, cache)
	return engine.Run(ctx, urls, scraper.Opts{
		Workers:    cfg.Scrape.Workers,
		Sequential: cfg.Scrape.Sequential,
		Delay:      time.Duration(cfg.Scrape.DelayMS) * time.Millisecond,
		Timeout:    time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
	})
}

// writeRecords emits records in the requested format. JSON and CSV go to
// stdout unless an output path is given; XLSX always needs a path.
func writeRecords(records []model.StoreRecord, format string, output string) error {
	switch format {
	case "json", "csv":
		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return eris.Wrapf(err, "create output file %s", output)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}
		if format == "csv" {
			return export.WriteCSV(w, records)
		}
		return export.WriteJSON(w, records)
	case "xlsx":
		if output == "" {
			return eris.New("xlsx output requires --output")
		}
		return export.WriteXLSX(output, records)
	default:
		return eris.Errorf("unknown output format %q (want json, csv or xlsx)", format)
	}
}
