package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// StarMarker matches one highlighted (yellow) star in a rating widget.
	StarMarker = "path[fill='#ffce31']"
	// DefaultRating is assumed when a widget cannot be measured.
	DefaultRating = 5
	maxRating     = 5
)

// StarCount is the result of reading a rating widget. A widget with no
// highlighted markers is Unmeasurable rather than a zero rating.
type StarCount struct {
	n        int
	measured bool
}

// Measured returns a StarCount holding n stars.
func Measured(n int) StarCount { return StarCount{n: n, measured: true} }

// Unmeasurable returns a StarCount for a widget that could not be read.
func Unmeasurable() StarCount { return StarCount{} }

// Value returns the count and whether it was measured.
func (s StarCount) Value() (int, bool) { return s.n, s.measured }

// OrDefault returns the measured count, or def when unmeasurable.
func (s StarCount) OrDefault(def int) int {
	if !s.measured {
		return def
	}
	return s.n
}

// CountStars counts elements matching marker inside an item's outer HTML.
// Parse failures and zero matches are both Unmeasurable; counts above five
// are clamped.
func CountStars(html, marker string) StarCount {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Unmeasurable()
	}
	n := doc.Find(marker).Length()
	if n == 0 {
		return Unmeasurable()
	}
	if n > maxRating {
		n = maxRating
	}
	return Measured(n)
}
