package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// maxErrorBody bounds how much of a failed response ends up in an error message.
const maxErrorBody = 200

// retryDelay is the pause before the single retry of a transient failure.
var retryDelay = 200 * time.Millisecond

// get performs a GET request against endpoint with params and returns the body.
// Transient failures (network errors, 429, 5xx) are retried once.
func get(ctx context.Context, cfg config, provider string, params url.Values, header http.Header) ([]byte, error) {
	u, err := url.Parse(cfg.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	u.RawQuery = params.Encode()
	// The query string carries API keys; errors only ever name scheme, host and path.
	display := u.Scheme + "://" + u.Host + u.Path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	body, err := retry.DoWithData(
		func() ([]byte, error) {
			resp, err := cfg.httpClient.Do(req)
			if err != nil {
				return nil, fmt.Errorf("%s request: %w", provider, scrubURLError(err))
			}
			defer resp.Body.Close() //nolint:errcheck // best effort cleanup

			if resp.StatusCode != http.StatusOK {
				snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // message only
				return nil, &HTTPError{
					Provider:   provider,
					Endpoint:   display,
					StatusCode: resp.StatusCode,
					Body:       strings.TrimSpace(string(snippet)),
				}
			}
			return io.ReadAll(resp.Body)
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(retryDelay),
		retry.MaxJitter(retryDelay/2),
		retry.RetryIf(isRetryableError),
		retry.OnRetry(func(n uint, err error) {
			cfg.logger.DebugContext(ctx, "retrying search request", "provider", provider, "attempt", n+1, "error", err)
		}),
	)
	if err == nil {
		return body, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		cfg.logger.WarnContext(ctx, "search request failed", "provider", provider, "status", httpErr.StatusCode)
		return nil, httpErr
	}
	cfg.logger.WarnContext(ctx, "search request failed", "provider", provider, "error", err)
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// isRetryableError returns true for transient errors that should be retried.
func isRetryableError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// scrubURLError drops the request URL (and its API key) from transport errors.
func scrubURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
