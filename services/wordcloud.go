package services

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"shop-scraper/models"
	"shop-scraper/utils"
)

const (
	cloudWidth    = 800
	cloudHeight   = 400
	cloudMaxWords = 60
	cloudMaxScale = 4
	cloudPadding  = 6
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {},
	"all": {}, "any": {}, "can": {}, "had": {}, "her": {}, "was": {}, "one": {},
	"our": {}, "out": {}, "has": {}, "have": {}, "this": {}, "that": {}, "with": {},
	"they": {}, "them": {}, "then": {}, "than": {}, "from": {}, "were": {}, "been": {},
	"its": {}, "it's": {}, "very": {}, "just": {}, "also": {}, "would": {}, "will": {},
	"what": {}, "when": {}, "which": {}, "there": {}, "their": {}, "these": {}, "some": {},
	"more": {}, "into": {}, "only": {}, "other": {}, "about": {}, "after": {}, "again": {},
	"did": {}, "does": {}, "got": {}, "get": {}, "his": {}, "she": {}, "him": {}, "who": {},
	"how": {}, "too": {}, "i'm": {}, "i've": {}, "don't": {}, "didn't": {}, "really": {},
}

var cloudPalette = []color.RGBA{
	{0x1f, 0x77, 0xb4, 0xff},
	{0xff, 0x7f, 0x0e, 0xff},
	{0x2c, 0xa0, 0x2c, 0xff},
	{0xd6, 0x27, 0x28, 0xff},
	{0x94, 0x67, 0xbd, 0xff},
	{0x8c, 0x56, 0x4b, 0xff},
}

// Tokenize lower-cases text and splits it into words. Apostrophes inside a
// word are kept.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

// WordCount is one word with its frequency.
type WordCount struct {
	Word  string
	Count int
}

// TopWords counts words across texts, skipping stopwords and words shorter
// than three letters, and returns the n most frequent. Ties sort
// alphabetically.
func TopWords(texts []string, n int) []WordCount {
	counts := make(map[string]int)
	for _, t := range texts {
		for _, w := range Tokenize(t) {
			w = strings.Trim(w, "'")
			if len([]rune(w)) < 3 {
				continue
			}
			if _, stop := stopwords[w]; stop {
				continue
			}
			counts[w]++
		}
	}

	words := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		words = append(words, WordCount{Word: w, Count: c})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}

// WordCloud renders one word-frequency image per calendar month.
type WordCloud struct {
	logger *utils.Logger
}

func NewWordCloud(logger *utils.Logger) *WordCloud {
	return &WordCloud{logger: logger}
}

// Generate writes <dir>/<Month>.png for every month present in the review
// dates and returns the written paths. Reviews from the same month of
// different years share one image.
func (wc *WordCloud) Generate(reviews []models.Review, dir string) ([]string, error) {
	byMonth := make(map[time.Month][]string)
	for _, r := range reviews {
		t, ok := ParseReviewDate(r.Date)
		if !ok {
			continue
		}
		byMonth[t.Month()] = append(byMonth[t.Month()], r.Text)
	}
	if len(byMonth) == 0 {
		wc.logger.Warn("[wordcloud] No dated reviews — nothing to render")
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("wordcloud: mkdir %s: %w", dir, err)
	}

	months := make([]time.Month, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })

	var paths []string
	for _, m := range months {
		words := TopWords(byMonth[m], cloudMaxWords)
		if len(words) == 0 {
			continue
		}
		path := filepath.Join(dir, m.String()+".png")
		if err := writePNG(path, Render(words)); err != nil {
			return paths, err
		}
		wc.logger.Info("[wordcloud] %s — %d words → %s", m, len(words), path)
		paths = append(paths, path)
	}
	return paths, nil
}

// Render lays words out left to right, largest first, scaling each by its
// frequency relative to the most common word. Words that do not fit are
// left out.
func Render(words []WordCount) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, cloudWidth, cloudHeight))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	if len(words) == 0 {
		return canvas
	}

	maxCount, minCount := words[0].Count, words[len(words)-1].Count
	face := basicfont.Face7x13

	x, y, rowHeight := cloudPadding, cloudPadding, 0
	for i, w := range words {
		scale := 1
		if maxCount > minCount {
			scale = 1 + (w.Count-minCount)*(cloudMaxScale-1)/(maxCount-minCount)
		}

		glyphs := renderWord(w.Word, face, cloudPalette[i%len(cloudPalette)])
		gw, gh := glyphs.Bounds().Dx()*scale, glyphs.Bounds().Dy()*scale

		if x+gw > cloudWidth-cloudPadding {
			x = cloudPadding
			y += rowHeight + cloudPadding
			rowHeight = 0
		}
		if y+gh > cloudHeight-cloudPadding {
			break
		}

		dst := image.Rect(x, y, x+gw, y+gh)
		draw.NearestNeighbor.Scale(canvas, dst, glyphs, glyphs.Bounds(), draw.Over, nil)

		x += gw + cloudPadding
		if gh > rowHeight {
			rowHeight = gh
		}
	}
	return canvas
}

func renderWord(word string, face font.Face, c color.Color) *image.RGBA {
	width := font.MeasureString(face, word).Ceil()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	d.DrawString(word)
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wordcloud: create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("wordcloud: encode %s: %w", path, err)
	}
	return f.Close()
}
