package models

// SentimentStat aggregates enriched reviews sharing one label.
type SentimentStat struct {
	Label         SentimentLabel
	Count         int
	AvgConfidence float64
}

// InsightReport holds the computed analytics over a Dataset.
type InsightReport struct {
	TotalProducts     int
	TotalTestimonials int
	TotalReviews      int
	EnrichedReviews   int

	// RatingHistogram counts testimonials and reviews per star value.
	RatingHistogram map[int]int
	// ReviewsByMonth is keyed by "2006-01"; reviews whose date line cannot be
	// parsed are counted in UndatedReviews instead.
	ReviewsByMonth map[string]int
	UndatedReviews int

	Sentiment []SentimentStat
	// NewestReview and OldestReview are the first and last collected reviews.
	NewestReview *Review
	OldestReview *Review
}
