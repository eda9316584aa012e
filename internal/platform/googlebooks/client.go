package googlebooks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bookshelf/internal/platform/logging"
	"bookshelf/internal/platform/metrics"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/books/v1"
	breakerName    = "google-books"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("google books circuit open")

// neutralError marks a failed search that says nothing about upstream
// health: the caller went away, or the upstream rejected the request itself.
// The breaker counts it as a success.
type neutralError struct{ err error }

func (e neutralError) Error() string { return e.err.Error() }
func (e neutralError) Unwrap() error { return e.err }

func countsAsSuccess(err error) bool {
	var n neutralError
	return err == nil || errors.As(err, &n)
}

type Options struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	RPS        int
	MaxRetries int
	Timeout    time.Duration
	// RetryBackoff is the first retry delay; it doubles on each attempt.
	RetryBackoff time.Duration
	// FailureThreshold is the number of consecutive failed searches that
	// opens the breaker.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	userAgent    string
	limiter      *rate.Limiter
	maxRetries   int
	retryBackoff time.Duration
	cb           *gobreaker.CircuitBreaker[[]Volume]
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "bookshelf/1.0"
	}
	if opts.RPS <= 0 {
		opts.RPS = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	threshold := opts.FailureThreshold

	return &Client{
		httpClient:   &http.Client{Timeout: opts.Timeout},
		baseURL:      opts.BaseURL,
		apiKey:       opts.APIKey,
		userAgent:    opts.UserAgent,
		limiter:      rate.NewLimiter(rate.Every(time.Second/time.Duration(opts.RPS)), 1),
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
		cb: gobreaker.NewCircuitBreaker[[]Volume](gobreaker.Settings{
			Name:        breakerName,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     opts.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: countsAsSuccess,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
				metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			},
		}),
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// SearchVolumes runs a free-text volumes query. A response without items is
// an empty slice, not an error.
func (c *Client) SearchVolumes(ctx context.Context, query string, maxResults int) ([]Volume, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	u := c.baseURL + "/volumes?" + params.Encode()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	volumes, err := c.cb.Execute(func() ([]Volume, error) {
		var res VolumesResponse
		if err := c.get(ctx, u, &res); err != nil {
			return nil, err
		}
		return res.Items, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		var n neutralError
		if errors.As(err, &n) {
			return nil, n.err
		}
		return nil, err
	}
	if volumes == nil {
		volumes = []Volume{}
	}
	return volumes, nil
}

func (c *Client) get(ctx context.Context, u string, target any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			backoff := c.retryBackoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return neutralError{ctx.Err()}
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return neutralError{err}
		}

		retry, err := c.do(ctx, u, target)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

// do performs one request. retry reports whether the failure is transient.
func (c *Client) do(ctx context.Context, u string, target any) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.MetadataRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return false, neutralError{err}
		}
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return true, err
		}
		return false, neutralError{err}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		err = fmt.Errorf("decode volumes response: %w", err)
		if ctx.Err() != nil {
			return false, neutralError{err}
		}
		return false, err
	}
	return false, nil
}
