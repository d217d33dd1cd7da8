// Package crawl walks paginated listings pages and turns them into job
// records.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/extract"
	"github.com/designsnack/leadharvest/internal/leads"
	"github.com/designsnack/leadharvest/internal/metrics"
)

// Config controls a listing crawl.
type Config struct {
	BaseURL   string
	MaxPages  int
	PageDelay time.Duration
}

// snapshotter is the optional diagnostics surface of a renderer.
type snapshotter interface {
	Snapshot(ctx context.Context, name string) error
}

// Crawler visits listing pages in order until a stop condition fires: the
// page cap, a page with no records, or a page without a next link.
type Crawler struct {
	renderer  leads.Renderer
	extractor leads.Extractor
	clock     leads.Clock
	fetcher   DetailFetcher
	cfg       Config
	logger    *zap.Logger
	seq       int
}

// New builds a Crawler. MaxPages below 1 is clamped to 1.
func New(renderer leads.Renderer, extractor leads.Extractor, clock leads.Clock, cfg Config, logger *zap.Logger) *Crawler {
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		renderer:  renderer,
		extractor: extractor,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// WithDetailFetcher enables the static detail-page probe used to backfill
// descriptions the listing card did not yield.
func (c *Crawler) WithDetailFetcher(fetcher DetailFetcher) *Crawler {
	c.fetcher = fetcher
	return c
}

// Crawl renders pages for the term and returns the extracted records plus the
// number of pages visited. A failed page is logged and skipped; the crawl
// moves on to the next page index.
func (c *Crawler) Crawl(ctx context.Context, term string) ([]leads.JobRecord, int, error) {
	var records []leads.JobRecord
	pagesVisited := 0

	for page := 1; page <= c.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return records, pagesVisited, fmt.Errorf("crawl interrupted: %w", err)
		}
		if page > 1 && c.cfg.PageDelay > 0 {
			if err := sleep(ctx, c.cfg.PageDelay); err != nil {
				return records, pagesVisited, fmt.Errorf("crawl interrupted: %w", err)
			}
		}

		pageURL := PageURL(c.cfg.BaseURL, term, page)
		html, err := c.renderer.Navigate(ctx, pageURL)
		pagesVisited++
		metrics.PagesCrawled.Inc()
		if err != nil {
			c.logger.Warn("listing page failed, moving on",
				zap.Int("page", page), zap.String("url", pageURL), zap.Error(err))
			continue
		}
		c.snapshot(ctx, term, page)

		pageRecords := c.extractor.Extract(leads.RawPage{
			PageIndex: page,
			URL:       pageURL,
			HTML:      html,
		})
		c.logger.Info("listing page extracted",
			zap.Int("page", page), zap.Int("records", len(pageRecords)))
		metrics.RecordsExtracted.Add(float64(len(pageRecords)))

		if len(pageRecords) == 0 {
			c.logger.Info("empty listing page, stopping crawl", zap.Int("page", page))
			break
		}
		pageRecords = c.finalize(pageRecords)
		c.backfillDescriptions(ctx, pageRecords)
		records = append(records, pageRecords...)

		hasNext, err := c.renderer.HasNextLink(ctx)
		if err != nil {
			c.logger.Warn("next-link detection failed, stopping crawl",
				zap.Int("page", page), zap.Error(err))
			break
		}
		if !hasNext {
			c.logger.Info("no next link, crawl complete", zap.Int("page", page))
			break
		}
	}
	return records, pagesVisited, nil
}

// finalize assigns the crawl-scoped fields the extractor does not own:
// sequential IDs, the scrape timestamp and the hotness level.
func (c *Crawler) finalize(pageRecords []leads.JobRecord) []leads.JobRecord {
	now := c.clock.Now()
	for i := range pageRecords {
		pageRecords[i].ID = fmt.Sprintf("job_%d", c.nextSeq())
		pageRecords[i].ScrapedAt = now
		pageRecords[i].HotnessLevel = extract.Hotness(pageRecords[i].PublishedDate)
	}
	return pageRecords
}

// backfillDescriptions probes detail pages for records whose listing card
// gave no description. Probe failures leave the record as extracted.
func (c *Crawler) backfillDescriptions(ctx context.Context, pageRecords []leads.JobRecord) {
	if c.fetcher == nil {
		return
	}
	for i := range pageRecords {
		if pageRecords[i].Description != "" || pageRecords[i].URL == "" {
			continue
		}
		html, err := c.fetcher.Fetch(ctx, pageRecords[i].URL)
		if err != nil {
			c.logger.Debug("detail probe failed",
				zap.String("url", pageRecords[i].URL), zap.Error(err))
			continue
		}
		pageRecords[i].Description = extract.DetailDescription(html)
	}
}

func (c *Crawler) nextSeq() int {
	c.seq++
	return c.seq
}

func (c *Crawler) snapshot(ctx context.Context, term string, page int) {
	snap, ok := c.renderer.(snapshotter)
	if !ok {
		return
	}
	name := fmt.Sprintf("%s-page-%d", url.PathEscape(term), page)
	if err := snap.Snapshot(ctx, name); err != nil {
		c.logger.Debug("snapshot skipped", zap.String("name", name), zap.Error(err))
	}
}

// PageURL builds the deterministic listing URL for a term and page index.
// Page 1 is the bare search URL; later pages carry an explicit page param.
func PageURL(baseURL, term string, page int) string {
	values := url.Values{}
	values.Set("term", term)
	if page > 1 {
		values.Set("page", fmt.Sprintf("%d", page))
	}
	return baseURL + "?" + values.Encode()
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
