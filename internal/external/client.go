// Package external is the boundary between RideWise and the third-party
// weather, places and geocoding providers. Every outbound HTTP call goes
// through BaseClient, which applies circuit breaking, retries with backoff,
// trace propagation and error mapping.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"ridewise/internal/types"
)

// maxResponseSize bounds how much of a provider body GetJSON will read.
const maxResponseSize = 4 << 20

// RetryPolicy configures the retry behavior for the BaseClient.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy keeps interactive calls short: two retries and at most
// four seconds between attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		MinWait:    250 * time.Millisecond,
		MaxWait:    4 * time.Second,
	}
}

// ClientConfig describes one provider.
type ClientConfig struct {
	// Provider names the circuit breaker and the metrics dimension.
	Provider string
	// UnavailableCode is returned when the provider cannot be reached or
	// keeps failing.
	UnavailableCode types.ErrorCode
	Timeout         time.Duration
	UserAgent       string
	Retry           RetryPolicy
}

// BaseClient wraps an *http.Client and a per-provider circuit breaker.
// Provider clients (weather, places, geocoding) hold one each.
type BaseClient struct {
	client          *http.Client
	breaker         *gobreaker.CircuitBreaker[*http.Response]
	provider        string
	unavailableCode types.ErrorCode
	retryPolicy     RetryPolicy
	userAgent       string
	sleepFn         func(time.Duration) // for testability; defaults to time.Sleep
	onFailure       func(provider string)
}

// BaseClientOption is a functional option for configuring a BaseClient.
type BaseClientOption func(*BaseClient)

// WithSleepFunc overrides the sleep function used between retries.
func WithSleepFunc(fn func(time.Duration)) BaseClientOption {
	return func(c *BaseClient) {
		c.sleepFn = fn
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) BaseClientOption {
	return func(c *BaseClient) {
		c.client = hc
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *gobreaker.CircuitBreaker[*http.Response]) BaseClientOption {
	return func(c *BaseClient) {
		c.breaker = cb
	}
}

// WithFailureHook registers fn to be called once per failed Do. cmd/api uses
// it to feed the ExternalAPIFailure metric.
func WithFailureHook(fn func(provider string)) BaseClientOption {
	return func(c *BaseClient) {
		c.onFailure = fn
	}
}

// NewBreaker builds the breaker used for a provider: it opens after more than
// five consecutive failures and probes again after 30 seconds.
func NewBreaker(name string) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})
}

// NewBaseClient creates a BaseClient for the provider described by cfg.
func NewBaseClient(cfg ClientConfig, opts ...BaseClientOption) *BaseClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	code := cfg.UnavailableCode
	if code == "" {
		code = types.ErrCodeUpstreamUnavailable
	}

	bc := &BaseClient{
		client:          &http.Client{Timeout: timeout},
		breaker:         NewBreaker(cfg.Provider),
		provider:        cfg.Provider,
		unavailableCode: code,
		retryPolicy:     cfg.Retry,
		userAgent:       cfg.UserAgent,
		sleepFn:         time.Sleep,
	}

	for _, opt := range opts {
		opt(bc)
	}

	return bc
}

// Provider returns the provider name.
func (c *BaseClient) Provider() string { return c.provider }

// Do executes the request with trace and User-Agent headers, inside the
// circuit breaker, retrying on 429 and 5xx (honouring Retry-After).
//
// Any response below 500 other than 429 is returned as-is and the caller
// closes the body. Exhausted retries, an open breaker or a transport failure
// return a types.AppError.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if traceID := types.GetRequestID(req.Context()); traceID != "" {
		req.Header.Set("X-B3-TraceId", traceID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	// Snapshot the body so it can be replayed on retries.
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, types.NewAppError(
				types.ErrCodeInternalUnexpected,
				"failed to read request body for retry support",
				err,
			)
		}
		req.Body.Close()
	}

	var lastResp *http.Response
	var lastErr error

	maxAttempts := 1 + c.retryPolicy.MaxRetries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			req.ContentLength = int64(len(bodyBytes))
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 {
				return r, fmt.Errorf("%s returned %d", c.provider, r.StatusCode)
			}
			if r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("%s returned 429", c.provider)
			}
			return r, nil
		})

		if err == nil {
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			if attempt < maxAttempts-1 {
				resp.Body.Close()
			} else {
				lastResp = resp
			}
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		// A cancelled caller will not be helped by another attempt.
		if req.Context().Err() != nil {
			break
		}

		if attempt < maxAttempts-1 {
			c.sleepFn(c.computeBackoff(attempt, resp))
		}
	}

	if lastResp != nil {
		lastResp.Body.Close()
	}

	if c.onFailure != nil {
		c.onFailure(c.provider)
	}
	return nil, c.mapError(lastResp, redactQuery(lastErr))
}

// GetJSON issues a GET to url and decodes a 2xx JSON body into dst. Any
// other status maps to the provider's unavailable code; an undecodable body
// maps to upstream_invalid_response.
func (c *BaseClient) GetJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build provider request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if c.onFailure != nil {
			c.onFailure(c.provider)
		}
		return types.NewAppErrorWithDetails(
			c.unavailableCode,
			fmt.Sprintf("%s returned status %d", c.provider, resp.StatusCode),
			fmt.Errorf("body: %s", snippet),
			map[string]any{"status": resp.StatusCode},
		)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(dst); err != nil {
		return types.NewAppError(
			types.ErrCodeUpstreamInvalidFormat,
			fmt.Sprintf("%s returned an unreadable response", c.provider),
			err,
		)
	}
	return nil
}

// computeBackoff honours Retry-After (seconds or HTTP-date) when present and
// otherwise uses exponential backoff with jitter clamped to [MinWait, MaxWait].
func (c *BaseClient) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				return min(time.Duration(seconds)*time.Second, c.retryPolicy.MaxWait)
			}
			if t, err := http.ParseTime(retryAfter); err == nil {
				wait := time.Until(t)
				if wait <= 0 {
					return c.retryPolicy.MinWait
				}
				return min(wait, c.retryPolicy.MaxWait)
			}
		}
	}

	base := float64(c.retryPolicy.MinWait) * math.Pow(2, float64(attempt))
	base = math.Min(base, float64(c.retryPolicy.MaxWait))

	minWait := float64(c.retryPolicy.MinWait)
	if base <= minWait {
		return c.retryPolicy.MinWait
	}
	return time.Duration(minWait + rand.Float64()*(base-minWait))
}

// redactQuery strips the query string from transport errors, which may
// carry API keys, before they reach logs.
func redactQuery(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	if i := strings.IndexByte(ue.URL, '?'); i >= 0 {
		ue.URL = ue.URL[:i] + "?REDACTED"
	}
	return err
}

// mapError translates transport-level failures into AppErrors.
func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamRateLimited,
			c.provider+" is temporarily unavailable",
			err,
			map[string]any{"provider": c.provider},
		)
	}

	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamRateLimited,
			c.provider+" rate limit exceeded",
			err,
			map[string]any{"provider": c.provider},
		)
	}

	msg := c.provider + " request failed"
	if resp != nil {
		msg = fmt.Sprintf("%s returned %d after retries", c.provider, resp.StatusCode)
	}
	return types.NewAppErrorWithDetails(c.unavailableCode, msg, err, map[string]any{"provider": c.provider})
}
