// Package scraper holds the browser-facing building blocks of a scrape run:
// the Page abstraction, its chromedp implementation, and the site-agnostic
// drivers for paginated, load-more and infinite-scroll listings.
package scraper

import "context"

// Block is one rendered item: its visible text and its outer HTML.
type Block struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// Page is a single browser tab. Implementations are not safe for concurrent
// use; every phase of a run drives its own Page.
type Page interface {
	// Navigate loads url and waits for the document to settle.
	Navigate(ctx context.Context, url string) error
	// Blocks returns every element currently matching selector, in document
	// order.
	Blocks(ctx context.Context, selector string) ([]Block, error)
	// Count returns the number of elements currently matching selector.
	Count(ctx context.Context, selector string) (int, error)
	ScrollHeight(ctx context.Context) (int64, error)
	ScrollToBottom(ctx context.Context) error
	// ClickIfVisible clicks the first element matching selector when it
	// exists and is visible, and reports whether it did.
	ClickIfVisible(ctx context.Context, selector string) (bool, error)
	Close() error
}

// Opener hands out fresh tabs.
type Opener interface {
	NewPage(ctx context.Context) (Page, error)
}
