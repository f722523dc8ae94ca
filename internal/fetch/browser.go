package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the shortest extracted text accepted from a plain HTTP fetch.
// Shorter text usually means the posting is rendered client-side.
const MinContentLength = 500

// renderWait bounds how long the browser waits for the posting content to appear.
const renderWait = 5 * time.Second

// consentButtons match cookie banner buttons that can cover the posting.
var consentButtons = []string{
	`button[id*="accept"]`,
	`button[class*="accept"]`,
	`#onetrust-accept-btn-handler`,
}

// ShouldUseBrowser reports whether extracted text is too short to be a real job posting.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// WithBrowser renders a page in headless Chrome and returns the rendered HTML. It waits
// up to renderWait for one of the platform's content selectors to become visible.
// Requires Chrome or Chromium on the host.
func WithBrowser(ctx context.Context, url string, platform Platform, timeout time.Duration, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger.Debug("starting headless browser", slog.String("url", url), slog.String("platform", string(platform)))

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	content := strings.Join(PlatformContentSelectors(platform), ", ")

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Both steps are best effort: a page without a banner or a known container
		// is still captured.
		chromedp.ActionFunc(func(ctx context.Context) error {
			_ = chromedp.Click(strings.Join(consentButtons, ", "), chromedp.ByQuery, chromedp.NodeVisible, chromedp.AtLeast(0)).Do(ctx)
			return nil
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			waitCtx, cancel := context.WithTimeout(ctx, renderWait)
			defer cancel()
			if err := chromedp.WaitVisible(content, chromedp.ByQuery).Do(waitCtx); err != nil {
				logger.Debug("content selector never became visible", slog.String("url", url), slog.Any("error", err))
			}
			return nil
		}),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to run chrome: %w", err)
	}

	logger.Debug("browser rendered page", slog.String("url", url), slog.Int("bytes", len(html)))
	return html, nil
}
