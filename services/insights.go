package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"shop-scraper/models"
	"shop-scraper/utils"
)

// InsightService computes and renders summaries of a Dataset.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(ds *models.Dataset) *models.InsightReport {
	report := &models.InsightReport{
		RatingHistogram: make(map[int]int),
		ReviewsByMonth:  make(map[string]int),
	}
	if ds == nil {
		return report
	}

	report.TotalProducts = len(ds.Products)
	report.TotalTestimonials = len(ds.Testimonials)
	report.TotalReviews = len(ds.Reviews)

	for _, t := range ds.Testimonials {
		report.RatingHistogram[t.Rating]++
	}

	type agg struct {
		count int
		conf  float64
	}
	bySentiment := make(map[models.SentimentLabel]*agg)

	for i := range ds.Reviews {
		r := &ds.Reviews[i]
		report.RatingHistogram[r.Rating]++

		if t, ok := ParseReviewDate(r.Date); ok {
			report.ReviewsByMonth[t.Format("2006-01")]++
		} else {
			report.UndatedReviews++
		}

		if r.Enriched() {
			report.EnrichedReviews++
			a := bySentiment[r.SentimentLabel]
			if a == nil {
				a = &agg{}
				bySentiment[r.SentimentLabel] = a
			}
			a.count++
			a.conf += r.Confidence
		}
	}

	for label, a := range bySentiment {
		report.Sentiment = append(report.Sentiment, models.SentimentStat{
			Label:         label,
			Count:         a.count,
			AvgConfidence: round2(a.conf / float64(a.count)),
		})
	}
	sort.Slice(report.Sentiment, func(i, j int) bool {
		return report.Sentiment[i].Label > report.Sentiment[j].Label
	})

	if n := len(ds.Reviews); n > 0 {
		newest, oldest := ds.Reviews[0], ds.Reviews[n-1]
		report.NewestReview = &newest
		report.OldestReview = &oldest
	}

	return report
}

// Print writes the summary banner and tables to w.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 SHOP SCRAPE INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Products     : \033[1m%d\033[0m\n", r.TotalProducts)
	fmt.Fprintf(w, "  Testimonials : \033[1m%d\033[0m\n", r.TotalTestimonials)
	fmt.Fprintf(w, "  Reviews      : \033[1m%d\033[0m (%d enriched)\n", r.TotalReviews, r.EnrichedReviews)
	if r.NewestReview != nil {
		fmt.Fprintf(w, "  Newest review: %s\n", r.NewestReview.Date)
		fmt.Fprintf(w, "  Oldest review: %s\n", r.OldestReview.Date)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Ratings\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for stars := 5; stars >= 1; stars-- {
		n := r.RatingHistogram[stars]
		fmt.Fprintf(w, "  %s %s (%d)\n", strings.Repeat("★", stars)+strings.Repeat("☆", 5-stars),
			strings.Repeat("█", n), n)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Reviews by Month\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ReviewsByMonth) == 0 {
		fmt.Fprintf(w, "  No dated reviews\n")
	} else {
		months := make([]string, 0, len(r.ReviewsByMonth))
		for m := range r.ReviewsByMonth {
			months = append(months, m)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(months)))
		for _, m := range months {
			fmt.Fprintf(w, "  %-10s %s (%d)\n", m, strings.Repeat("█", r.ReviewsByMonth[m]), r.ReviewsByMonth[m])
		}
	}
	if r.UndatedReviews > 0 {
		fmt.Fprintf(w, "  %d review(s) with an unparseable date\n", r.UndatedReviews)
	}
	fmt.Fprintln(w)

	if len(r.Sentiment) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Sentiment\033[0m\n")
		s.SentimentTable(w, r.Sentiment).Render()
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// ProductsTable lists every product with a running index.
func (s *InsightService) ProductsTable(w io.Writer, products []models.Product) table.Writer {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Title", "Price"})
	for i, p := range products {
		t.AppendRow(table.Row{i + 1, p.Title, p.Price})
	}
	t.AppendFooter(table.Row{"", "Total", len(products)})
	return t
}

// TestimonialsTable lists testimonials; rating 0 keeps all of them.
func (s *InsightService) TestimonialsTable(w io.Writer, testimonials []models.Testimonial, rating int) table.Writer {
	t := newTable(w)
	t.AppendHeader(table.Row{"Rating", "Testimonial"})
	for _, tm := range FilterTestimonials(testimonials, rating) {
		t.AppendRow(table.Row{tm.Rating, truncate(tm.Text, 90)})
	}
	return t
}

// ReviewsTable lists reviews with their sentiment when present.
func (s *InsightService) ReviewsTable(w io.Writer, reviews []models.Review) table.Writer {
	t := newTable(w)
	t.AppendHeader(table.Row{"Date", "Rating", "Sentiment", "Confidence", "Review"})
	for _, r := range reviews {
		conf := ""
		if r.Enriched() {
			conf = fmt.Sprintf("%.3f", r.Confidence)
		}
		t.AppendRow(table.Row{r.Date, r.Rating, string(r.SentimentLabel), conf, truncate(r.Text, 70)})
	}
	return t
}

// SentimentTable renders count and average confidence per label.
func (s *InsightService) SentimentTable(w io.Writer, stats []models.SentimentStat) table.Writer {
	t := newTable(w)
	t.AppendHeader(table.Row{"Label", "Count", "Avg confidence"})
	for _, st := range stats {
		t.AppendRow(table.Row{string(st.Label), st.Count, fmt.Sprintf("%.2f", st.AvgConfidence)})
	}
	return t
}

// FilterTestimonials keeps testimonials with the given rating; 0 keeps all.
func FilterTestimonials(testimonials []models.Testimonial, rating int) []models.Testimonial {
	if rating == 0 {
		return testimonials
	}
	out := make([]models.Testimonial, 0, len(testimonials))
	for _, t := range testimonials {
		if t.Rating == rating {
			out = append(out, t)
		}
	}
	return out
}

// FilterReviews keeps reviews dated in the given year and month. A zero month
// keeps the whole year. Reviews with an unparseable date never match.
func FilterReviews(reviews []models.Review, year int, month time.Month) []models.Review {
	out := make([]models.Review, 0)
	for _, r := range reviews {
		t, ok := ParseReviewDate(r.Date)
		if !ok || t.Year() != year {
			continue
		}
		if month != 0 && t.Month() != month {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SentimentStats aggregates enriched reviews per label.
func SentimentStats(reviews []models.Review) []models.SentimentStat {
	r := NewInsightService(utils.NewDiscardLogger()).Generate(&models.Dataset{Reviews: reviews})
	return r.Sentiment
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
