package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// yearRegexp matches a standalone four-digit year in the 2000s.
var yearRegexp = regexp.MustCompile(`\b(20\d{2})\b`)

// DateMatch is the result of a successful ClassifyDate call.
type DateMatch struct {
	Line string
	Year int
}

// ClassifyDate returns the first line carrying a year token together with the
// parsed year. It never guesses: when no line matches, ok is false and the
// caller must drop the entry.
func ClassifyDate(lines []string) (match DateMatch, ok bool) {
	for _, line := range lines {
		m := yearRegexp.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return DateMatch{Line: line, Year: year}, true
	}
	return DateMatch{}, false
}

// dateFragment pulls the date-looking part out of a longer line such as
// "Posted on March 3, 2022 by Anna".
var dateFragments = []*regexp.Regexp{
	regexp.MustCompile(`\b20\d{2}-\d{1,2}-\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/20\d{2}\b`),
	regexp.MustCompile(`\b[A-Za-z]{3,9}\.? \d{1,2}(?:st|nd|rd|th)?,? 20\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2} [A-Za-z]{3,9}\.?,? 20\d{2}\b`),
	regexp.MustCompile(`\b[A-Za-z]{3,9} 20\d{2}\b`),
}

var ordinalSuffix = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)

var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Jan. 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
}

// ParseReviewDate parses the calendar date out of a review's raw date line.
// Month-only dates resolve to the first of the month.
func ParseReviewDate(line string) (time.Time, bool) {
	for _, re := range dateFragments {
		frag := re.FindString(line)
		if frag == "" {
			continue
		}
		frag = ordinalSuffix.ReplaceAllString(frag, "$1")
		frag = strings.Join(strings.Fields(frag), " ")
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, frag); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
