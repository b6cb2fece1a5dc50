package scraper

import (
	"context"

	"shop-scraper/models"
	"shop-scraper/services"
	"shop-scraper/utils"
)

// ReviewOptions configures CollectReviews.
type ReviewOptions struct {
	// CutoffYear stops collection at the first review dated before it.
	CutoffYear    int
	Item          string
	StarMarker    string
	DefaultRating int
	// Extract picks the date line and body out of a block. Defaults to
	// services.ExtractReviewFields.
	Extract services.ReviewExtractor
	// Advance loads the next batch; nil collects the first batch only.
	Advance AdvanceFunc

	Logger  *utils.Logger
	Metrics *utils.Metrics
}

// CollectReviews gathers reviews until one older than CutoffYear appears.
//
// The page must list reviews newest first. The cutoff discards the old review
// and everything after it in the same batch, so a source that mixes old and
// new entries loses the new ones that follow. Out-of-order years are counted
// and logged but do not change what is collected.
//
// Blocks already seen are skipped before the cutoff check, so a re-rendered
// old block never stops collection twice. Blocks without a year are dropped.
func CollectReviews(ctx context.Context, page Page, opts ReviewOptions) ([]models.Review, error) {
	if opts.Extract == nil {
		opts.Extract = services.ExtractReviewFields
	}
	if opts.StarMarker == "" {
		opts.StarMarker = StarMarker
	}
	if opts.DefaultRating == 0 {
		opts.DefaultRating = DefaultRating
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}

	var (
		reviews    = make([]models.Review, 0)
		seenBlocks = services.NewDeduper()
		seenTexts  = services.NewDeduper()
		order      orderTracker
	)

	extract := func(ctx context.Context) (int, bool, error) {
		blocks, err := page.Blocks(ctx, opts.Item)
		if err != nil {
			return 0, false, err
		}

		for _, b := range blocks {
			if !seenBlocks.Admit(b.Text) {
				continue
			}

			c := opts.Extract(b.Text)
			if !c.HasDate {
				opts.Metrics.IncDropped("review", "undated")
				logger.Debug("[reviews] Dropping block without a year: %.60q", b.Text)
				continue
			}

			if prev, regressed := order.observe(c.Year); regressed {
				opts.Metrics.IncOrderingRegression()
				logger.Warn("[reviews] Review from %d follows one from %d; source is not newest-first", c.Year, prev)
			}

			if c.Year < opts.CutoffYear {
				logger.Info("[reviews] Reached a review from %d (cutoff %d) — stopping", c.Year, opts.CutoffYear)
				return len(blocks), true, nil
			}

			if !seenTexts.Admit(c.Text) {
				opts.Metrics.IncDropped("review", "duplicate")
				continue
			}

			reviews = append(reviews, models.Review{
				Date:   c.DateLine,
				Text:   c.Text,
				Rating: CountStars(b.HTML, opts.StarMarker).OrDefault(opts.DefaultRating),
			})
			opts.Metrics.IncCollected("review")
		}

		logger.Info("[reviews] %d reviews collected so far", len(reviews))
		return len(blocks), false, nil
	}

	advance := opts.Advance
	if advance != nil {
		advance = func(ctx context.Context, rendered int) (bool, error) {
			opts.Metrics.IncPage("reviews")
			return opts.Advance(ctx, rendered)
		}
	}

	_, err := Drain(ctx, logger, extract, advance)
	return reviews, err
}

// orderTracker remembers the oldest year seen so far.
type orderTracker struct {
	oldest int
	seen   bool
}

// observe records year and reports whether it is newer than an earlier,
// older entry.
func (o *orderTracker) observe(year int) (oldest int, regressed bool) {
	if !o.seen {
		o.oldest, o.seen = year, true
		return year, false
	}
	if year > o.oldest {
		return o.oldest, true
	}
	o.oldest = year
	return year, false
}
