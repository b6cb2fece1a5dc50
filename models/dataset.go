package models

// SentimentLabel is the binary label attached by the enrichment phase.
type SentimentLabel string

const (
	Positive SentimentLabel = "POSITIVE"
	Negative SentimentLabel = "NEGATIVE"
)

// Product is one entry of the paginated product listing.
// Price is a formatted currency token such as "$9.99", or "N/A".
type Product struct {
	Title string `json:"title"`
	Price string `json:"price"`
}

// Testimonial is one cleaned testimonial card.
type Testimonial struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

// Review is a dated review block. Date holds the raw line the year was found
// on, not a canonical date. SentimentLabel and Confidence stay empty until
// the review has been enriched.
type Review struct {
	Date           string         `json:"date"`
	Text           string         `json:"text"`
	Rating         int            `json:"rating"`
	SentimentLabel SentimentLabel `json:"sentiment_label,omitempty"`
	Confidence     float64        `json:"confidence,omitempty"`
}

// Enriched reports whether a sentiment label has been attached.
func (r Review) Enriched() bool {
	return r.SentimentLabel != ""
}

// Dataset is the aggregate produced by one scrape run. Reviews are kept in
// collection order, which is newest first.
type Dataset struct {
	Products     []Product     `json:"products"`
	Reviews      []Review      `json:"reviews"`
	Testimonials []Testimonial `json:"testimonials"`
}

// NewDataset returns a Dataset whose collections encode as [] rather than null.
func NewDataset() *Dataset {
	return &Dataset{
		Products:     make([]Product, 0),
		Reviews:      make([]Review, 0),
		Testimonials: make([]Testimonial, 0),
	}
}
