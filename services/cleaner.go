package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"shop-scraper/models"
	"shop-scraper/utils"
)

var (
	// currencyRegexp captures a formatted amount such as "$24.99" or "24.99".
	currencyRegexp = regexp.MustCompile(`[$€£]?\s*\d+\.\d{2}`)
	// decimalRegexp captures any decimal-looking number.
	decimalRegexp = regexp.MustCompile(`\d+\.\d+`)
)

const (
	// NoPrice marks a product whose block carried no recognisable amount.
	NoPrice = "N/A"
	// defaultCurrency prefixes prices recovered by the decimal fallback.
	defaultCurrency = "$"

	minTestimonialLen = 10
	maxTestimonialLen = 400
)

// navigationChrome lists link texts that structural selectors pick up by
// accident and that must never become product titles.
var navigationChrome = map[string]struct{}{
	"log in":   {},
	"login":    {},
	"sign in":  {},
	"sign up":  {},
	"register": {},
	"cart":     {},
}

// testimonialBoilerplate holds promotional fragments that mark a card as
// site copy rather than a customer testimonial.
var testimonialBoilerplate = []string{
	"Take a look",
	"collection",
}

// NormaliseText strips leading/trailing whitespace and collapses internal
// whitespace, newlines included, to single spaces.
func NormaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

// SplitLines splits raw rendered text into trimmed lines, keeping empty ones
// out.
func SplitLines(raw string) []string {
	parts := strings.Split(strings.TrimSpace(raw), "\n")
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			lines = append(lines, p)
		}
	}
	return lines
}

// Deduper suppresses repeated text. Membership is decided on the normalised
// form, so re-rendered blocks that only differ in whitespace collapse.
type Deduper struct {
	seen *utils.StringSet
}

// NewDeduper creates an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{seen: utils.NewStringSet()}
}

// Admit reports whether text is new, recording it if so. Empty text is never
// admitted.
func (d *Deduper) Admit(text string) bool {
	key := NormaliseText(text)
	if key == "" {
		return false
	}
	return d.seen.Add(key)
}

// Len returns the number of distinct texts admitted so far.
func (d *Deduper) Len() int {
	return d.seen.Size()
}

// ParseProduct turns a product block's rendered text into a Product. The
// title is the first line; blocks whose title is too short or is navigation
// chrome are rejected.
func ParseProduct(raw string) (models.Product, bool) {
	lines := SplitLines(raw)
	if len(lines) == 0 {
		return models.Product{}, false
	}

	title := lines[0]
	if utf8.RuneCountInString(title) <= 2 {
		return models.Product{}, false
	}
	if _, chrome := navigationChrome[strings.ToLower(title)]; chrome {
		return models.Product{}, false
	}

	return models.Product{Title: title, Price: parsePrice(raw)}, true
}

// parsePrice returns the first currency amount in text, falling back to the
// last decimal number with the default currency prefixed.
// Examples:
//
//	"Box of Chocolate\n$24.99" → "$24.99"
//	"Energy Potion, size 0.5 or 1.5" → "$1.5"
//	"Gift card" → "N/A"
func parsePrice(text string) string {
	if m := currencyRegexp.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	if nums := decimalRegexp.FindAllString(text, -1); len(nums) > 0 {
		return defaultCurrency + nums[len(nums)-1]
	}
	return NoPrice
}

// CleanTestimonial normalises a testimonial card and applies the length and
// boilerplate filters. The second result is false when the card is rejected.
func CleanTestimonial(raw string) (string, bool) {
	text := NormaliseText(raw)
	n := utf8.RuneCountInString(text)
	if n < minTestimonialLen || n > maxTestimonialLen {
		return "", false
	}
	for _, b := range testimonialBoilerplate {
		if strings.Contains(text, b) {
			return "", false
		}
	}
	return text, true
}
