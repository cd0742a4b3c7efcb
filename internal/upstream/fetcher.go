// Package upstream performs the raw HTTP calls against third-party
// providers.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	apierrors "github.com/finfeed/fxcrypto/pkg/errors"
)

// DefaultTimeout bounds a single upstream call end to end.
const DefaultTimeout = 10 * time.Second

// Fetcher performs a GET against a provider URL and decodes the JSON body
// into out. Schema validation belongs to the caller.
type Fetcher interface {
	FetchJSON(ctx context.Context, url string, out any) error
}

// HTTPFetcher is the http.Client-backed Fetcher used in production.
type HTTPFetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPFetcher creates a fetcher whose calls fail once timeout elapses; a
// non-positive timeout selects DefaultTimeout.
func NewHTTPFetcher(logger *zap.Logger, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchJSON implements Fetcher. Connection failures, timeouts, non-2xx
// statuses and undecodable bodies all surface as Upstream errors.
func (f *HTTPFetcher) FetchJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apierrors.Upstream("failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("upstream request failed", zap.String("url", url), zap.Error(err))
		return apierrors.Upstream("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		f.logger.Warn("upstream returned non-success status",
			zap.String("url", url), zap.Int("status", resp.StatusCode))
		return apierrors.Upstream(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierrors.Upstream("failed to decode response", err)
	}

	return nil
}
