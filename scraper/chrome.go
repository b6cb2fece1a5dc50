package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"shop-scraper/config"
	"shop-scraper/utils"
)

const (
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	// opTimeout bounds every in-page script evaluation.
	opTimeout = 30 * time.Second
)

// Browser owns one Chrome process. Tabs opened from it share the process and
// a navigation limiter.
type Browser struct {
	logger *utils.Logger

	allocCtx      context.Context
	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc

	limiter    *rate.Limiter
	retry      *utils.RetryConfig
	navTimeout time.Duration
	settle     time.Duration
}

// NewBrowser starts Chrome with the flags the run needs and returns once the
// process is up.
func NewBrowser(cfg *config.Config, logger *utils.Logger) (*Browser, error) {
	chromeBin := cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", displayBin(chromeBin))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	// An empty Run starts the process so later timeouts only bound real work.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("browser: start chrome: %w", err)
	}

	limit := rate.Inf
	if cfg.NavigationDelay > 0 {
		limit = rate.Every(cfg.NavigationDelay)
	}

	return &Browser{
		logger:        logger,
		allocCtx:      allocCtx,
		cancelAlloc:   cancelAlloc,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		limiter:       rate.NewLimiter(limit, 1),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxNavAttempts,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		navTimeout: cfg.NavigationTimeout,
		settle:     cfg.PageSettle,
	}, nil
}

// NewPage opens a new tab. The tab is closed when ctx is cancelled or when
// Close is called.
func (b *Browser) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		return nil, fmt.Errorf("browser: open tab: %w", err)
	}
	stop := context.AfterFunc(ctx, cancelTab)

	return &ChromePage{
		browser: b,
		tabCtx:  tabCtx,
		close: func() {
			stop()
			cancelTab()
		},
	}, nil
}

// Close shuts Chrome down.
func (b *Browser) Close() error {
	err := chromedp.Cancel(b.browserCtx)
	b.cancelBrowser()
	b.cancelAlloc()
	return err
}

// ChromePage is a Page backed by one chromedp tab.
type ChromePage struct {
	browser *Browser
	tabCtx  context.Context
	close   func()
}

// run executes actions on the tab, bounded by timeout and by ctx.
func (p *ChromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(p.tabCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(opCtx, actions...)
}

func (p *ChromePage) Navigate(ctx context.Context, url string) error {
	if err := p.browser.limiter.Wait(ctx); err != nil {
		return err
	}
	err := p.browser.retry.Do(ctx, "navigate "+url, func() error {
		return p.run(ctx, p.browser.navTimeout,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
		)
	})
	if err != nil {
		return fmt.Errorf("chromedp navigate %s: %w", url, err)
	}
	return utils.Sleep(ctx, p.browser.settle)
}

func (p *ChromePage) Blocks(ctx context.Context, selector string) ([]Block, error) {
	var blocks []Block
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(function(e) {
		return {text: e.innerText || '', html: e.outerHTML};
	})`, quoteJS(selector))
	if err := p.run(ctx, opTimeout, chromedp.Evaluate(script, &blocks)); err != nil {
		return nil, fmt.Errorf("chromedp blocks %q: %w", selector, err)
	}
	return blocks, nil
}

func (p *ChromePage) Count(ctx context.Context, selector string) (int, error) {
	var n int
	script := fmt.Sprintf(`document.querySelectorAll(%s).length`, quoteJS(selector))
	if err := p.run(ctx, opTimeout, chromedp.Evaluate(script, &n)); err != nil {
		return 0, fmt.Errorf("chromedp count %q: %w", selector, err)
	}
	return n, nil
}

func (p *ChromePage) ScrollHeight(ctx context.Context) (int64, error) {
	var h int64
	if err := p.run(ctx, opTimeout, chromedp.Evaluate(`document.body.scrollHeight`, &h)); err != nil {
		return 0, fmt.Errorf("chromedp scroll height: %w", err)
	}
	return h, nil
}

func (p *ChromePage) ScrollToBottom(ctx context.Context) error {
	if err := p.run(ctx, opTimeout, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil)); err != nil {
		return fmt.Errorf("chromedp scroll: %w", err)
	}
	return nil
}

func (p *ChromePage) ClickIfVisible(ctx context.Context, selector string) (bool, error) {
	var clicked bool
	script := fmt.Sprintf(`(function() {
		var el = document.querySelector(%s);
		if (!el || el.disabled) return false;
		var style = window.getComputedStyle(el);
		var rect = el.getBoundingClientRect();
		if (style.display === 'none' || style.visibility === 'hidden') return false;
		if (rect.width === 0 && rect.height === 0) return false;
		el.scrollIntoView({block: 'center'});
		el.click();
		return true;
	})()`, quoteJS(selector))
	if err := p.run(ctx, opTimeout, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, fmt.Errorf("chromedp click %q: %w", selector, err)
	}
	return clicked, nil
}

func (p *ChromePage) Close() error {
	p.close()
	return nil
}

// quoteJS renders s as a JavaScript string literal.
func quoteJS(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func displayBin(bin string) string {
	if bin == "" {
		return "(chromedp default)"
	}
	return bin
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
