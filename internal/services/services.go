package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/shared"
	"golang.org/x/time/rate"
)

// Provider searches one music platform.
//
// Search never returns an error: transport, auth and status failures are
// logged and reported through [Result] so sibling providers keep running.
type Provider interface {
	Platform() models.Platform
	Search(ctx context.Context, q models.Query) Result
}

// Resolver is implemented by providers that can look up a single best match
// in a way that differs from their list search.
type Resolver interface {
	Resolve(ctx context.Context, q models.Query) Result
}

// Outcome classifies a [Result].
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeEmpty
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// Result is what a provider hands back to an orchestrator.
type Result struct {
	Platform models.Platform
	Tracks   []models.Track
	Err      error
}

// Outcome distinguishes success with data, success without data, and a logged failure.
func (r Result) Outcome() Outcome {
	switch {
	case r.Err != nil:
		return OutcomeFailed
	case len(r.Tracks) == 0:
		return OutcomeEmpty
	default:
		return OutcomeOK
	}
}

// First returns the first track, if any.
func (r Result) First() (models.Track, bool) {
	if len(r.Tracks) == 0 {
		return models.Track{}, false
	}
	return r.Tracks[0], true
}

// Options configures the HTTP plumbing shared by every adapter.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *log.Logger
}

// NewLimiter builds a token bucket from requests per second and burst, or nil when rps is not positive.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), max(burst, 1))
}

// client performs rate limited JSON requests against one platform's API.
type client struct {
	platform   models.Platform
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

func newClient(p models.Platform, defaultBaseURL string, opts Options) client {
	c := client{
		platform:   p,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    opts.Limiter,
		logger:     opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	c.logger = shared.WithLogger(c.logger, "platform", string(p))
	return c
}

// getJSON issues a GET to baseURL+endpoint and decodes a 2xx body into result.
func (c *client) getJSON(ctx context.Context, endpoint string, params url.Values, header http.Header, result any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrRateLimited, err)
		}
	}

	apiURL := c.baseURL + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s API error: status %d", shared.ErrAPIRequest, c.platform, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// fail logs err for op and converts it into a failed [Result].
func (c *client) fail(op string, err error) Result {
	c.logger.Warn("provider call failed", "op", op, "err", err)
	return Result{Platform: c.platform, Err: err}
}

func (c *client) found(tracks []models.Track) Result {
	return Result{Platform: c.platform, Tracks: tracks}
}

// matchesArtist reports whether filter is empty or appears in any of names, case-insensitively.
func matchesArtist(filter string, names ...string) bool {
	if filter == "" {
		return true
	}
	f := strings.ToLower(filter)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), f) {
			return true
		}
	}
	return false
}
