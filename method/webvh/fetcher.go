/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webvh

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	vdrapi "github.com/decentralized-identity/didwebvh-go/vdr/api"
)

const defaultFetchRetries = 3

// Fetcher retrieves the bytes a URL serves. Implementations own
// transport concerns; retryability stays inside the fetcher and is
// opaque to the core. Fetch must honor context cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher is the default Fetcher over net/http with exponential
// backoff on transient failures.
type HTTPFetcher struct {
	client  *http.Client
	retries uint64
}

// NewHTTPFetcher creates an HTTP fetcher. A nil client falls back to a
// default client with a request timeout.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &HTTPFetcher{client: client, retries: defaultFetchRetries}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("http get %s: %w", url, err)
		}

		defer closeResponseBody(resp.Body)

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(vdrapi.ErrNotFound)
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("http server returned status code [%d] for %s", resp.StatusCode, url)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body failed: %w", err)
		}

		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), f.retries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return body, nil
}

func closeResponseBody(body io.Closer) {
	if err := body.Close(); err != nil {
		logger.Warnf("failed to close response body: %v", err)
	}
}
