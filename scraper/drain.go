package scraper

import (
	"context"
	"errors"
	"time"

	"shop-scraper/utils"
)

// ErrWaitTimeout is returned by WaitForCount when the element count did not
// grow in time.
var ErrWaitTimeout = errors.New("timed out waiting for new elements")

// ExtractFunc processes whatever is currently rendered. It returns how many
// items were on the page and whether collection should stop.
type ExtractFunc func(ctx context.Context) (rendered int, stop bool, err error)

// AdvanceFunc asks the page for more items and reports whether any arrived.
type AdvanceFunc func(ctx context.Context, rendered int) (more bool, err error)

// Drain alternates extract and advance until the page runs dry: zero items
// rendered, extract asks to stop, or advance reports no growth. Extraction
// and control errors end the drain cleanly and are only logged; the returned
// error is non-nil only when ctx is done.
func Drain(ctx context.Context, logger *utils.Logger, extract ExtractFunc, advance AdvanceFunc) (rounds int, err error) {
	for {
		if err := ctx.Err(); err != nil {
			return rounds, err
		}

		rendered, stop, err := extract(ctx)
		rounds++
		if err != nil {
			if ctx.Err() != nil {
				return rounds, ctx.Err()
			}
			logger.Warn("[drain] Extraction failed on round %d, stopping: %v", rounds, err)
			return rounds, nil
		}
		if rendered == 0 || stop || advance == nil {
			return rounds, nil
		}

		more, err := advance(ctx, rendered)
		if err != nil {
			if ctx.Err() != nil {
				return rounds, ctx.Err()
			}
			logger.Debug("[drain] Advance failed after round %d, treating as end: %v", rounds, err)
			return rounds, nil
		}
		if !more {
			return rounds, nil
		}
	}
}

// HeightStable scrolls to the bottom, waits settle, and reports growth when
// the document's scroll height changed since the previous measurement.
func HeightStable(page Page, settle time.Duration) AdvanceFunc {
	var (
		last     int64
		measured bool
	)
	return func(ctx context.Context, _ int) (bool, error) {
		if !measured {
			h, err := page.ScrollHeight(ctx)
			if err != nil {
				return false, err
			}
			last, measured = h, true
		}

		if err := page.ScrollToBottom(ctx); err != nil {
			return false, err
		}
		if err := utils.Sleep(ctx, settle); err != nil {
			return false, err
		}

		h, err := page.ScrollHeight(ctx)
		if err != nil {
			return false, err
		}
		if h == last {
			return false, nil
		}
		last = h
		return true, nil
	}
}

// LoadMoreOptions configures the button-driven strategy.
type LoadMoreOptions struct {
	Button  string        // load-more control selector
	Item    string        // selector of the items the button appends
	Settle  time.Duration // pause after scrolling and after growth
	Timeout time.Duration // bound on waiting for new items
	Poll    time.Duration
}

// LoadMore scrolls down, clicks the load-more control when it is visible and
// waits for the item count to exceed the count before the click. A missing
// or hidden control and a wait timeout both mean no more content.
func LoadMore(page Page, opts LoadMoreOptions) AdvanceFunc {
	return func(ctx context.Context, _ int) (bool, error) {
		if err := page.ScrollToBottom(ctx); err != nil {
			return false, err
		}
		if err := utils.Sleep(ctx, opts.Settle); err != nil {
			return false, err
		}

		before, err := page.Count(ctx, opts.Item)
		if err != nil {
			return false, err
		}

		clicked, err := page.ClickIfVisible(ctx, opts.Button)
		if err != nil || !clicked {
			return false, err
		}

		if _, err := WaitForCount(ctx, page, opts.Item, before, opts.Timeout, opts.Poll); err != nil {
			if errors.Is(err, ErrWaitTimeout) {
				return false, nil
			}
			return false, err
		}
		return true, utils.Sleep(ctx, opts.Settle)
	}
}

// WaitForCount polls until more than above elements match selector and
// returns the new count. It gives up with ErrWaitTimeout after timeout.
func WaitForCount(ctx context.Context, page Page, selector string, above int, timeout, poll time.Duration) (int, error) {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)

	for {
		n, err := page.Count(ctx, selector)
		if err != nil {
			return 0, err
		}
		if n > above {
			return n, nil
		}
		if !time.Now().Before(deadline) {
			return n, ErrWaitTimeout
		}
		if err := utils.Sleep(ctx, poll); err != nil {
			return n, err
		}
	}
}
