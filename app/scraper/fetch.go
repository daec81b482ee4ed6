package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Theaters routinely block obvious bots; all adapters present the same
// desktop browser user agent the sites expect.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const fetchTimeout = 15 * time.Second

// fetcher is the shared HTTP helper composed into static and feed adapters.
// One immediate reattempt on transient failure, nothing beyond that.
type fetcher struct {
	client *resty.Client
}

func newFetcher() *fetcher {
	client := resty.New().
		SetHeader("User-Agent", userAgent).
		SetTimeout(fetchTimeout).
		SetRetryCount(1).
		SetRetryWaitTime(0)

	return &fetcher{client: client}
}

func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrSourceUnavailable, url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch %s: HTTP %d", ErrSourceUnavailable, url, resp.StatusCode())
	}
	return resp.Body(), nil
}

// getJSON decodes a JSON endpoint straight into out.
func (f *fetcher) getJSON(ctx context.Context, url string, params map[string]string, out any) error {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		Get(url)
	if err != nil {
		return fmt.Errorf("%w: fetch %s: %v", ErrSourceUnavailable, url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: fetch %s: HTTP %d", ErrSourceUnavailable, url, resp.StatusCode())
	}
	return nil
}
