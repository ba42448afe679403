package investing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"bondpulse/internal/catalog"
	"bondpulse/internal/config"
)

// browserUserAgent goes out on every fingerprint-path request. The
// stock Go user agent is rejected outright by the challenge layer.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// browserSettleDelay gives a challenged page time to finish its
// verification script before the rendered DOM is captured.
const browserSettleDelay = 2 * time.Second

// challengeMarkers identify an interstitial challenge page. Matched
// case-insensitively against the raw markup.
var challengeMarkers = []string{
	"just a moment",
	"attention required",
	"cf-browser-verification",
	"challenge-platform",
	"cf-turnstile",
	"_cf_chl",
}

// Client is the shared HTTP path to the remote yield source: a resty
// client dressed up as a real browser behind a shared rate limiter,
// plus a headless browser fallback for pages the fingerprint path
// cannot get past. The cookie jar is shared between instrument pages
// and history calls; resolving a page establishes the session the
// history endpoint expects.
type Client struct {
	http     *resty.Client
	logger   *slog.Logger
	baseURL  string
	headless bool
	timeout  time.Duration
}

// NewClient builds a client from the collection configuration. Zero
// timeouts and delays fall back to the shipped defaults.
func NewClient(cfg config.CollectionConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(cfg.InvestingBaseURL, "/")
	if baseURL == "" {
		baseURL = catalog.InvestingBaseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	pace := cfg.FetchDelay
	if pace <= 0 {
		pace = 500 * time.Millisecond
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseURL)
	jar, _ := cookiejar.New(nil)
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeader("User-Agent", browserUserAgent)
	httpClient.SetHeader("Accept-Language", "en-US,en;q=0.9")
	httpClient.SetTimeout(timeout)
	if u, err := url.Parse(baseURL); err == nil && u.Hostname() != "" {
		httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(
			u.Hostname(), strings.TrimPrefix(u.Hostname(), "www.")))
	}

	// Hard floor on request rate, on top of the walk-level pauses.
	limiter := rate.NewLimiter(rate.Every(pace), 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	return &Client{
		http:     httpClient,
		logger:   logger,
		baseURL:  baseURL,
		headless: cfg.Headless,
		timeout:  timeout,
	}
}

// PageURL returns the historical-data page URL for an instrument slug.
func (c *Client) PageURL(slug string) string {
	return c.baseURL + catalog.InvestingRatesPath + "/" + slug + "-historical-data"
}

// historyURL returns the history AJAX endpoint URL.
func (c *Client) historyURL() string {
	return c.baseURL + catalog.InvestingAjaxPath
}

// FetchPage GETs an instrument page through the fingerprint path and
// returns the body with its HTTP status. Only transport-level
// failures are errors; status interpretation is left to the caller.
func (c *Client) FetchPage(ctx context.Context, slug string) (string, int, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(catalog.InvestingRatesPath + "/" + slug + "-historical-data")
	if err != nil {
		return "", 0, fmt.Errorf("failed to fetch instrument page: %w", err)
	}
	return res.String(), res.StatusCode(), nil
}

// PostHistory replays the source's internal history AJAX call. The
// endpoint rejects requests without the AJAX marker header and a
// plausible referer.
func (c *Client) PostHistory(ctx context.Context, form map[string]string, referer string) ([]byte, int, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetHeader("Referer", referer).
		SetFormData(form).
		Post(catalog.InvestingAjaxPath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to post history request: %w", err)
	}
	return res.Body(), res.StatusCode(), nil
}

// FetchPageWithBrowser loads an instrument page in a real headless
// browser, the fallback for pages the fingerprint path cannot clear.
func (c *Client) FetchPageWithBrowser(ctx context.Context, pageURL string) (string, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts, chromedp.Flag("headless", c.headless))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, c.timeout+browserSettleDelay)
	defer cancelTimeout()

	c.logger.InfoContext(ctx, "rendering page in headless browser", slog.String("url", pageURL))

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(browserSettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render page in browser: %w", err)
	}
	return html, nil
}

// LooksChallenged reports whether markup is an interstitial challenge
// page rather than instrument content.
func LooksChallenged(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
