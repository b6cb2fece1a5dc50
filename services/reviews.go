package services

import "unicode/utf8"

// ReviewCandidate is what a review block yields before rating and cutoff are
// applied. HasDate is false when no line carried a year.
type ReviewCandidate struct {
	DateLine string
	Year     int
	HasDate  bool
	Text     string
}

// ReviewExtractor turns a review block's rendered text into a candidate. It
// is swappable so collection control flow never depends on the heuristic.
type ReviewExtractor func(raw string) ReviewCandidate

// ExtractReviewFields is the default ReviewExtractor: the first year-bearing
// line is the date and the longest line is the review body.
func ExtractReviewFields(raw string) ReviewCandidate {
	lines := SplitLines(raw)

	var c ReviewCandidate
	if m, ok := ClassifyDate(lines); ok {
		c.DateLine, c.Year, c.HasDate = m.Line, m.Year, true
	}

	longest := 0
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n > longest {
			longest = n
			c.Text = l
		}
	}
	return c
}
