// Package scrapertest provides an in-memory scraper.Page for driving the
// collectors without a browser.
package scrapertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"shop-scraper/scraper"
)

// Loading selects how a Site reveals batches after the first.
type Loading int

const (
	// Static sites never reveal more than the first batch.
	Static Loading = iota
	// Scroll reveals the next batch on every scroll to the bottom.
	Scroll
	// Button reveals the next batch when the load-more control is clicked.
	Button
	// StuckButton shows a clickable control that never loads anything.
	StuckButton
)

// Site is the content served at one URL.
type Site struct {
	Batches [][]scraper.Block
	Loading Loading
	// NavErr makes Navigate to this URL fail.
	NavErr error
}

// Block builds a block whose HTML carries stars highlighted markers.
func Block(text string, stars int) scraper.Block {
	var b strings.Builder
	b.WriteString(`<div class="item"><svg>`)
	for i := 0; i < stars; i++ {
		b.WriteString(`<path fill="#ffce31" d="M0 0"></path>`)
	}
	for i := stars; i < 5; i++ {
		b.WriteString(`<path fill="#c4c4c4" d="M0 0"></path>`)
	}
	b.WriteString(`</svg><p>`)
	b.WriteString(text)
	b.WriteString(`</p></div>`)
	return scraper.Block{Text: text, HTML: b.String()}
}

// Page is a fake scraper.Page over a fixed set of sites.
type Page struct {
	sites map[string]*Site

	mu          sync.Mutex
	current     *Site
	revealed    int
	Navigations []string
	Clicks      int
	Scrolls     int
	Closed      bool
}

// NewPage returns a Page serving sites keyed by URL. Unknown URLs render
// nothing.
func NewPage(sites map[string]*Site) *Page {
	return &Page{sites: sites}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Navigations = append(p.Navigations, url)
	site, ok := p.sites[url]
	if !ok {
		site = &Site{}
	}
	if site.NavErr != nil {
		return site.NavErr
	}
	p.current, p.revealed = site, 1
	return nil
}

func (p *Page) Blocks(ctx context.Context, _ string) ([]scraper.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible(), nil
}

func (p *Page) Count(ctx context.Context, _ string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.visible()), nil
}

func (p *Page) ScrollHeight(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return int64(100 * (len(p.visible()) + 1)), nil
}

func (p *Page) ScrollToBottom(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Scrolls++
	if p.current != nil && p.current.Loading == Scroll && p.revealed < len(p.current.Batches) {
		p.revealed++
	}
	return nil
}

func (p *Page) ClickIfVisible(ctx context.Context, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return false, nil
	}
	switch p.current.Loading {
	case Button:
		if p.revealed >= len(p.current.Batches) {
			return false, nil
		}
		p.Clicks++
		p.revealed++
		return true, nil
	case StuckButton:
		p.Clicks++
		return true, nil
	}
	return false, nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

func (p *Page) visible() []scraper.Block {
	if p.current == nil {
		return nil
	}
	var out []scraper.Block
	for i := 0; i < p.revealed && i < len(p.current.Batches); i++ {
		out = append(out, p.current.Batches[i]...)
	}
	return out
}

// ErrOpen is returned by a Browser configured to fail.
var ErrOpen = errors.New("scrapertest: cannot open page")

// Browser is a fake scraper.Opener. Every tab shares the same sites but has
// its own navigation state.
type Browser struct {
	Sites map[string]*Site
	Fail  bool

	mu     sync.Mutex
	Opened []*Page
}

func (b *Browser) NewPage(ctx context.Context) (scraper.Page, error) {
	if b.Fail {
		return nil, ErrOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scrapertest: %w", err)
	}
	p := NewPage(b.Sites)
	b.mu.Lock()
	b.Opened = append(b.Opened, p)
	b.mu.Unlock()
	return p, nil
}
