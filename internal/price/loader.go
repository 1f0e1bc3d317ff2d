package price

import (
	"context"
	"fmt"
	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
	"io"
	"net/http"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// PageLoader returns the html of a page
type PageLoader interface {
	Load(ctx context.Context, pageURL string) (string, error)
}

// HTTPLoader fetches pages with a plain GET
type HTTPLoader struct {
	client *http.Client
}

func NewHTTPLoader() *HTTPLoader {
	return &HTTPLoader{client: &http.Client{Timeout: 30 * time.Second}}
}

func (l *HTTPLoader) Load(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "could not read body")
	}
	return string(body), nil
}

// BrowserLoader renders pages in headless chrome, for shops that build their listings in js
type BrowserLoader struct {
	timeout time.Duration
	settle  time.Duration
}

func NewBrowserLoader() *BrowserLoader {
	return &BrowserLoader{timeout: 60 * time.Second, settle: 500 * time.Millisecond}
}

func (l *BrowserLoader) Load(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ctx, cancelBrowser := chromedp.NewContext(ctx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(l.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", errors.Wrapf(err, "could not render %s", pageURL)
	}
	return html, nil
}
