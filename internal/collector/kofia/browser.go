package kofia

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

// browserOpTimeout bounds a single CDP round trip. The step-level
// guard is the session's; this only keeps a wedged browser from
// hanging a primitive forever.
const browserOpTimeout = 30 * time.Second

// BrowserOps is the primitive UI surface a portal session drives:
// navigation, element presence, clicks and input values, addressed by
// element id inside a nested frame path. The production implementation
// runs a Chrome instance over the DevTools protocol; tests substitute
// a scripted fake.
type BrowserOps interface {
	Navigate(ctx context.Context, url string) error
	Exists(ctx context.Context, frames []string, id string) (bool, error)
	Click(ctx context.Context, frames []string, id string) error
	SetValue(ctx context.Context, frames []string, id, value string) error
}

// BrowserFactory launches a browser for one session and returns the
// ops handle plus a cleanup that tears the browser down.
type BrowserFactory func(ctx context.Context, headless bool, downloadDir string) (BrowserOps, func(), error)

type chromeBrowser struct {
	ctx context.Context
}

// NewChromeBrowser starts a Chrome prepared for portal automation:
// headless per flag, downloads routed into downloadDir without a
// prompt. The returned cleanup closes the browser.
func NewChromeBrowser(parent context.Context, headless bool, downloadDir string) (BrowserOps, func(), error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	if headless {
		opts = append(opts, chromedp.Flag("headless", true))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	opts = append(opts,
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	cleanup := func() {
		cancelBrowser()
		cancelAlloc()
	}

	// The portal triggers the export download through a legacy form
	// post the page never acknowledges, so the browser must accept
	// downloads silently.
	err := chromedp.Run(browserCtx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(downloadDir))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return &chromeBrowser{ctx: browserCtx}, cleanup, nil
}

// run executes actions against the browser, bounded by the op timeout
// and released early when the caller's context ends.
func (b *chromeBrowser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.ctx, browserOpTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (b *chromeBrowser) Navigate(ctx context.Context, url string) error {
	if err := b.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (b *chromeBrowser) Exists(ctx context.Context, frames []string, id string) (bool, error) {
	var found bool
	if err := b.run(ctx, chromedp.Evaluate(existsExpr(frames, id), &found)); err != nil {
		return false, fmt.Errorf("failed to probe element %s: %w", id, err)
	}
	return found, nil
}

func (b *chromeBrowser) Click(ctx context.Context, frames []string, id string) error {
	var clicked bool
	if err := b.run(ctx, chromedp.Evaluate(clickExpr(frames, id), &clicked)); err != nil {
		return fmt.Errorf("failed to click element %s: %w", id, err)
	}
	if !clicked {
		return fmt.Errorf("element %s not present for click", id)
	}
	return nil
}

func (b *chromeBrowser) SetValue(ctx context.Context, frames []string, id, value string) error {
	var set bool
	if err := b.run(ctx, chromedp.Evaluate(setValueExpr(frames, id, value), &set)); err != nil {
		return fmt.Errorf("failed to set value on element %s: %w", id, err)
	}
	if !set {
		return fmt.Errorf("element %s not present for input", id)
	}
	return nil
}

// frameDocExpr builds the JS expression reaching the document of the
// innermost frame in path. The portal is a same-origin frameset, so
// window.frames chaining reaches every level.
func frameDocExpr(frames []string) string {
	var sb strings.Builder
	sb.WriteString("window")
	for _, name := range frames {
		fmt.Fprintf(&sb, ".frames[%s]", strconv.Quote(name))
	}
	sb.WriteString(".document")
	return sb.String()
}

// existsExpr probes for an element. Frames attach asynchronously while
// the portal boots, so a missing frame reads as element-not-there
// rather than an error.
func existsExpr(frames []string, id string) string {
	return fmt.Sprintf(`(function() {
	try {
		return !!%s.getElementById(%s);
	} catch (e) {
		return false;
	}
})()`, frameDocExpr(frames), strconv.Quote(id))
}

func clickExpr(frames []string, id string) string {
	return fmt.Sprintf(`(function() {
	try {
		var el = %s.getElementById(%s);
		if (!el) { return false; }
		el.click();
		return true;
	} catch (e) {
		return false;
	}
})()`, frameDocExpr(frames), strconv.Quote(id))
}

// setValueExpr clears the input before writing, then fires the events
// the portal's widget framework listens for.
func setValueExpr(frames []string, id, value string) string {
	return fmt.Sprintf(`(function() {
	try {
		var el = %s.getElementById(%s);
		if (!el) { return false; }
		el.value = '';
		el.value = %s;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	} catch (e) {
		return false;
	}
})()`, frameDocExpr(frames), strconv.Quote(id), strconv.Quote(value))
}
