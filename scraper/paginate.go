package scraper

import (
	"context"
	"fmt"
)

// PaginateOptions configures a numbered-page listing.
type PaginateOptions struct {
	// URL builds the address of page n.
	URL       func(n int) string
	StartPage int
	Selector  string
	// MaxPages bounds the walk; zero means until the listing runs dry.
	MaxPages int
}

// PageCollector consumes one page's blocks and returns how many new items it
// kept.
type PageCollector func(n int, blocks []Block) (added int)

// Paginate walks pages StartPage, StartPage+1, ... and stops at the first page
// with no blocks or no new items. It returns the number of pages loaded.
func Paginate(ctx context.Context, page Page, opts PaginateOptions, collect PageCollector) (int, error) {
	start := opts.StartPage
	if start < 1 {
		start = 1
	}

	visited := 0
	for n := start; opts.MaxPages <= 0 || visited < opts.MaxPages; n++ {
		if err := page.Navigate(ctx, opts.URL(n)); err != nil {
			return visited, fmt.Errorf("paginate: page %d: %w", n, err)
		}
		visited++

		blocks, err := page.Blocks(ctx, opts.Selector)
		if err != nil {
			return visited, fmt.Errorf("paginate: page %d: %w", n, err)
		}
		if len(blocks) == 0 {
			break
		}
		if collect(n, blocks) == 0 {
			break
		}
	}
	return visited, nil
}
