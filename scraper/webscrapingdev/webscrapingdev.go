// Package webscrapingdev drives the three listings of web-scraping.dev:
// paginated products, load-more reviews and infinite-scroll testimonials.
package webscrapingdev

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"shop-scraper/config"
	"shop-scraper/models"
	"shop-scraper/scraper"
	"shop-scraper/services"
	"shop-scraper/utils"
)

const (
	productsPath     = "/products"
	reviewsPath      = "/reviews"
	testimonialsPath = "/testimonials"

	productSelector     = "div.product-item, div[class*='product']"
	reviewSelector      = ".review"
	loadMoreSelector    = "#page-load-more"
	testimonialSelector = "div.testimonial-item, div[class*='testimonial']"
)

// Scraper orchestrates one scrape run.
type Scraper struct {
	cfg     *config.Config
	opener  scraper.Opener
	logger  *utils.Logger
	metrics *utils.Metrics
}

// New creates a Scraper that opens one tab per phase from opener.
func New(cfg *config.Config, opener scraper.Opener, logger *utils.Logger, metrics *utils.Metrics) *Scraper {
	return &Scraper{cfg: cfg, opener: opener, logger: logger, metrics: metrics}
}

// Scrape runs the products, reviews and testimonials phases and assembles
// the dataset once all three have finished. A failing phase is logged and
// keeps whatever it collected; only cancellation fails the run.
func (s *Scraper) Scrape(ctx context.Context) (*models.Dataset, error) {
	limit := 1
	if s.cfg.ParallelPhases {
		limit = 3
	}
	s.logger.Info("[scrape] Starting run against %s — cutoff year %d, %d phase(s) at a time",
		s.cfg.BaseURL, s.cfg.CutoffYear, limit)

	ds := models.NewDataset()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	// Each phase owns one dataset field; nothing is shared until Wait.
	g.Go(func() error {
		var err error
		ds.Products, err = runPhase(gctx, s, "products", s.Products)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Reviews, err = runPhase(gctx, s, "reviews", s.Reviews)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Testimonials, err = runPhase(gctx, s, "testimonials", s.Testimonials)
		return err
	})

	if err := g.Wait(); err != nil {
		return ds, fmt.Errorf("scrape: %w", err)
	}

	s.logger.Info("[scrape] Run complete — %d products, %d reviews, %d testimonials",
		len(ds.Products), len(ds.Reviews), len(ds.Testimonials))
	return ds, nil
}

// runPhase times fn and logs its outcome. Errors other than cancellation are
// swallowed so the remaining phases still run.
func runPhase[T any](ctx context.Context, s *Scraper, name string, fn func(context.Context) ([]T, error)) ([]T, error) {
	start := time.Now()
	s.logger.Info("[%s] Phase started", name)

	items, err := fn(ctx)
	s.metrics.ObservePhase(name, time.Since(start))
	if items == nil {
		items = make([]T, 0)
	}

	if err != nil {
		if ctx.Err() != nil {
			return items, ctx.Err()
		}
		s.logger.Error("[%s] Phase failed, keeping %d items: %v", name, len(items), err)
		return items, nil
	}
	s.logger.Info("[%s] Phase done — %d items in %s", name, len(items), time.Since(start).Round(time.Millisecond))
	return items, nil
}

// Products walks /products?page=N until a page adds no new titles.
func (s *Scraper) Products(ctx context.Context) ([]models.Product, error) {
	page, err := s.opener.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	products := make([]models.Product, 0)
	titles := services.NewDeduper()

	collect := func(n int, blocks []scraper.Block) int {
		s.metrics.IncPage("products")
		added := 0
		for _, b := range blocks {
			p, ok := services.ParseProduct(b.Text)
			if !ok {
				s.metrics.IncDropped("product", "unparseable")
				continue
			}
			if !titles.Admit(p.Title) {
				continue
			}
			products = append(products, p)
			s.metrics.IncCollected("product")
			added++
		}
		s.logger.Info("[products] Page %d: +%d new (%d total)", n, added, len(products))
		return added
	}

	opts := scraper.PaginateOptions{
		URL: func(n int) string {
			return fmt.Sprintf("%s?page=%d", s.cfg.URL(productsPath), n)
		},
		StartPage: s.cfg.StartPage,
		Selector:  productSelector,
	}
	if _, err := scraper.Paginate(ctx, page, opts, collect); err != nil {
		return products, err
	}
	return products, nil
}

// Reviews collects reviews newer than the cutoff year from /reviews.
func (s *Scraper) Reviews(ctx context.Context) ([]models.Review, error) {
	page, err := s.opener.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := page.Navigate(ctx, s.cfg.URL(reviewsPath)); err != nil {
		return nil, err
	}
	s.metrics.IncPage("reviews")

	return scraper.CollectReviews(ctx, page, scraper.ReviewOptions{
		CutoffYear:    s.cfg.CutoffYear,
		Item:          reviewSelector,
		StarMarker:    scraper.StarMarker,
		DefaultRating: scraper.DefaultRating,
		Extract:       services.ExtractReviewFields,
		Advance: scraper.LoadMore(page, scraper.LoadMoreOptions{
			Button:  loadMoreSelector,
			Item:    reviewSelector,
			Settle:  s.cfg.PageSettle,
			Timeout: s.cfg.LoadMoreTimeout,
			Poll:    s.cfg.PollInterval,
		}),
		Logger:  s.logger,
		Metrics: s.metrics,
	})
}

// Testimonials scrolls /testimonials until the page height stops growing.
func (s *Scraper) Testimonials(ctx context.Context) ([]models.Testimonial, error) {
	page, err := s.opener.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := page.Navigate(ctx, s.cfg.URL(testimonialsPath)); err != nil {
		return nil, err
	}
	s.metrics.IncPage("testimonials")

	testimonials := make([]models.Testimonial, 0)
	seen := services.NewDeduper()

	extract := func(ctx context.Context) (int, bool, error) {
		blocks, err := page.Blocks(ctx, testimonialSelector)
		if err != nil {
			return 0, false, err
		}
		for _, b := range blocks {
			text, ok := services.CleanTestimonial(b.Text)
			if !ok {
				continue
			}
			if !seen.Admit(text) {
				continue
			}
			testimonials = append(testimonials, models.Testimonial{
				Text:   text,
				Rating: scraper.CountStars(b.HTML, scraper.StarMarker).OrDefault(scraper.DefaultRating),
			})
			s.metrics.IncCollected("testimonial")
		}
		s.logger.Info("[testimonials] %d collected so far", len(testimonials))
		return len(blocks), false, nil
	}

	scroll := scraper.HeightStable(page, s.cfg.ScrollSettle)
	advance := func(ctx context.Context, rendered int) (bool, error) {
		s.metrics.IncPage("testimonials")
		return scroll(ctx, rendered)
	}

	if _, err := scraper.Drain(ctx, s.logger, extract, advance); err != nil {
		return testimonials, err
	}
	return testimonials, nil
}
