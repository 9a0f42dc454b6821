// Package fetch - browser.go renders pages whose listings are filled in by JavaScript.
package fetch

import (
	"context"
	"log"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserOptions configures a one-shot headless render.
type BrowserOptions struct {
	Timeout      time.Duration
	WaitSelector string        // waited for (visible) before capturing; "body" when empty
	Settle       time.Duration // extra wait for late scripts
	Verbose      bool
}

// WithBrowser renders a page in a headless browser and returns the rendered HTML.
// Requires Chrome/Chromium to be installed on the system.
func WithBrowser(ctx context.Context, url string, opts BrowserOptions) (string, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.WaitSelector == "" {
		opts.WaitSelector = "body"
	}
	if opts.Verbose {
		log.Printf("[BROWSER] Starting headless browser for: %s", url)
	}

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

	browserCtx, cancel = context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(opts.WaitSelector, chromedp.ByQuery),
		chromedp.Sleep(opts.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", &Error{URL: url, Message: "browser rendering failed", Cause: err}
	}

	if opts.Verbose {
		log.Printf("[BROWSER] Rendered HTML: %d bytes", len(html))
	}
	return html, nil
}

// FetchOrRender tries plain HTTP first and renders in the browser when ok reports
// that the HTTP body is not usable (for example, no listing cards in it).
func FetchOrRender(ctx context.Context, url string, opts *Options, browser *BrowserOptions, ok func(html string) bool) (string, error) {
	res, err := URL(ctx, url, opts)
	if err == nil && ok(res.HTML) {
		return res.HTML, nil
	}
	if browser == nil {
		if err != nil {
			return "", err
		}
		return res.HTML, nil
	}
	if err != nil {
		log.Printf("[BROWSER] HTTP fetch failed for %s, rendering instead: %v", url, err)
	}
	return WithBrowser(ctx, url, *browser)
}
