package sportsdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"golang.org/x/time/rate"

	"jellysports/internal/logging"
	"jellysports/internal/services"
)

const (
	defaultTimeout       = 20 * time.Second
	defaultRetryAttempts = 3
	defaultRetryDelay    = 1500 * time.Millisecond
	defaultPerMinute     = 100
)

// Client talks to the catalog API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	attempts   uint
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRequestsPerMinute bounds the request rate. Zero or less disables the limiter.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) {
		if n <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// WithRetry sets how often a rate-limited request is attempted and the base
// of the linear backoff between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = uint(attempts)
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "sportsdb")
	}
}

// New creates a catalog client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "sportsdb", "new client", "api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "sportsdb", "new client", "base url required", nil)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/defaultPerMinute), 1),
		attempts:   defaultRetryAttempts,
		retryDelay: defaultRetryDelay,
		logger:     logging.NewComponentLogger(nil, "sportsdb"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// AllLeagues returns every league in the catalog.
func (c *Client) AllLeagues(ctx context.Context) ([]League, error) {
	var payload allLeaguesResponse
	if err := c.getJSON(ctx, "/all/leagues", &payload); err != nil {
		return nil, err
	}
	return payload.All, nil
}

// AllSports returns every sport with its format.
func (c *Client) AllSports(ctx context.Context) ([]Sport, error) {
	var payload allSportsResponse
	if err := c.getJSON(ctx, "/all/sports", &payload); err != nil {
		return nil, err
	}
	return payload.All, nil
}

// SearchLeagues searches leagues by name. Spaces are sent as underscores.
func (c *Client) SearchLeagues(ctx context.Context, name string) ([]League, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("league name must not be empty")
	}
	var payload searchLeaguesResponse
	endpoint := "/search/league/" + url.PathEscape(strings.ReplaceAll(name, " ", "_"))
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Search, nil
}

// LookupLeague fetches a single league.
func (c *Client) LookupLeague(ctx context.Context, id string) (League, error) {
	var payload lookupLeagueResponse
	if err := c.getJSON(ctx, "/lookup/league/"+url.PathEscape(id), &payload); err != nil {
		return League{}, err
	}
	if len(payload.Lookup) == 0 {
		return League{}, services.Wrap(services.ErrNotFound, "sportsdb", "lookup league", id, nil)
	}
	return payload.Lookup[0], nil
}

// LookupEvent fetches a single event with its full detail.
func (c *Client) LookupEvent(ctx context.Context, id string) (Event, error) {
	var payload lookupEventResponse
	if err := c.getJSON(ctx, "/lookup/event/"+url.PathEscape(id), &payload); err != nil {
		return Event{}, err
	}
	if len(payload.Lookup) == 0 {
		return Event{}, services.Wrap(services.ErrNotFound, "sportsdb", "lookup event", id, nil)
	}
	return payload.Lookup[0], nil
}

// ListSeasons returns the seasons known for a league.
func (c *Client) ListSeasons(ctx context.Context, leagueID string) ([]Season, error) {
	var payload seasonsResponse
	if err := c.getJSON(ctx, "/list/seasons/"+url.PathEscape(leagueID), &payload); err != nil {
		return nil, err
	}
	return payload.List, nil
}

// FilterEvents returns the team-game events of one league season.
func (c *Client) FilterEvents(ctx context.Context, leagueID, season string) ([]Event, error) {
	var payload filterResponse
	endpoint := "/filter/events/" + url.PathEscape(leagueID) + "/" + url.PathEscape(season)
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Filter, nil
}

// ScheduleEvents returns the scheduled events of one league season.
func (c *Client) ScheduleEvents(ctx context.Context, leagueID, season string) ([]Event, error) {
	var payload scheduleResponse
	endpoint := "/schedule/league/" + url.PathEscape(leagueID) + "/" + url.PathEscape(season)
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Schedule, nil
}

// FetchArtwork downloads the image at an absolute artwork URL.
func (c *Client) FetchArtwork(ctx context.Context, artURL string) ([]byte, error) {
	artURL = strings.TrimSpace(artURL)
	if artURL == "" {
		return nil, errors.New("artwork url must not be empty")
	}
	return c.get(ctx, artURL)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	body, err := c.get(ctx, c.baseURL+endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// get performs a GET with rate limiting and retries rate-limited responses.
func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			var err error
			body, err = c.do(ctx, target)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, services.ErrRateLimited)
		}),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(n+1) * c.retryDelay
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("catalog rate limited, backing off",
				logging.String("url", redact(target)),
				logging.Int("attempt", int(n)+1),
				logging.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "sportsdb", "request", fmt.Sprintf("latency=%v", latency), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, services.Wrap(services.ErrRateLimited, "sportsdb", "request", redact(target), nil)
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "sportsdb", "request", redact(target), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("catalog returned %d for %s (latency=%v)", resp.StatusCode, redact(target), latency)
	}
	c.logger.Debug("catalog request",
		logging.String("url", redact(target)),
		logging.Duration("latency", latency),
		logging.Int("bytes", len(body)),
	)
	return body, nil
}

// redact drops the query string so logged URLs never carry credentials.
func redact(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i]
	}
	return target
}
