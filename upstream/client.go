package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/apperr"
	"github.com/IronManRust/culvers-ice-cream-ical/breaker"
	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"github.com/IronManRust/culvers-ice-cream-ical/model"
	"github.com/IronManRust/culvers-ice-cream-ical/ratelimit"
	"github.com/cockroachdb/errors"
)

const (
	DefaultUserAgent = "flavord/1.0"
	DefaultTimeout   = 15 * time.Second
	searchLimit      = 100
	maxBodyBytes     = 8 << 20
)

// Client is a Source backed by the upstream's HTTP JSON API. Requests are
// paced by a token bucket and guarded by a circuit breaker.
type Client struct {
	base      *url.URL
	http      *http.Client
	limiter   *ratelimit.Limiter
	breaker   *breaker.Breaker
	userAgent string
	log       logger.Logger
}

var _ Source = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	http      *http.Client
	rps       float64
	burst     int
	breaker   breaker.Config
	userAgent string
	log       logger.Logger
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cfg *clientConfig) { cfg.http = c }
}

// WithRateLimit paces outgoing requests to rps with the given burst. A
// non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(cfg *clientConfig) {
		cfg.rps = rps
		cfg.burst = burst
	}
}

// WithBreaker sets the circuit breaker parameters.
func WithBreaker(b breaker.Config) ClientOption {
	return func(cfg *clientConfig) { cfg.breaker = b }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(cfg *clientConfig) { cfg.userAgent = ua }
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) ClientOption {
	return func(cfg *clientConfig) { cfg.log = l }
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "parse upstream url %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Newf("upstream url %q must be http or https", baseURL)
	}
	cfg := clientConfig{
		http:      &http.Client{Timeout: DefaultTimeout},
		rps:       10,
		burst:     10,
		breaker:   breaker.DefaultConfig(),
		userAgent: DefaultUserAgent,
		log:       logger.Nop(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	log := cfg.log.WithPrefix("[upstream]")
	bcfg := cfg.breaker
	bcfg.IsFailure = func(err error) bool {
		return apperr.IsUpstream(err) || errors.Is(err, context.DeadlineExceeded)
	}
	next := bcfg.OnStateChange
	bcfg.OnStateChange = func(from, to breaker.State) {
		log.Warn("circuit breaker %s -> %s", from, to)
		if next != nil {
			next(from, to)
		}
	}
	return &Client{
		base:      u,
		http:      cfg.http,
		limiter:   ratelimit.NewLimiter(cfg.rps, cfg.burst),
		breaker:   breaker.New(bcfg),
		userAgent: cfg.userAgent,
		log:       log,
	}, nil
}

func (c *Client) Flavors(ctx context.Context) ([]model.FlavorDetail, error) {
	var dtos []flavorDTO
	if err := c.get(ctx, "/api/flavors", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]model.FlavorDetail, 0, len(dtos))
	seen := make(map[string]bool, len(dtos))
	for _, d := range dtos {
		f, err := d.toModel()
		if err != nil {
			c.log.Warn("skipping catalog entry: %v", err)
			continue
		}
		if seen[f.Key] {
			continue
		}
		seen[f.Key] = true
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, apperr.Upstream(nil, "flavor catalog is empty")
	}
	return out, nil
}

func (c *Client) Location(ctx context.Context, id int) (model.LocationDetail, error) {
	var dto locationDTO
	err := c.get(ctx, "/api/restaurants/"+strconv.Itoa(id), nil, &dto)
	if apperr.IsNotFound(err) {
		return model.LocationDetail{}, apperr.NotFound("location", id)
	}
	if err != nil {
		return model.LocationDetail{}, err
	}
	loc, err := dto.toModel()
	if err != nil {
		return model.LocationDetail{}, apperr.Upstream(err, "malformed location %d", id)
	}
	if loc.ID != id {
		return model.LocationDetail{}, apperr.Upstream(nil, "asked for location %d, got %d", id, loc.ID)
	}
	return loc, nil
}

func (c *Client) DailyFlavor(ctx context.Context, locationID int, date model.Date) (string, error) {
	var dto dailyFlavorDTO
	q := url.Values{"date": {date.String()}}
	err := c.get(ctx, fmt.Sprintf("/api/restaurants/%d/flavors", locationID), q, &dto)
	if apperr.IsNotFound(err) {
		return "", apperr.NotFound("calendar", fmt.Sprintf("%d/%s", locationID, date))
	}
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(dto.FlavorName)
	if name == "" {
		return "", apperr.Upstream(nil, "no flavor for location %d on %s", locationID, date)
	}
	return name, nil
}

func (c *Client) SearchLocations(ctx context.Context, postal string) ([]model.LocationSummary, error) {
	var dtos []locationDTO
	q := url.Values{"location": {postal}, "limit": {strconv.Itoa(searchLimit)}}
	if err := c.get(ctx, "/api/restaurants/getLocations", q, &dtos); err != nil {
		if apperr.IsNotFound(err) {
			return []model.LocationSummary{}, nil
		}
		return nil, err
	}
	out := make([]model.LocationSummary, 0, len(dtos))
	for _, d := range dtos {
		s, err := d.toSummary()
		if err != nil {
			c.log.Warn("skipping search result: %v", err)
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// get performs a paced, breaker-guarded GET and decodes the envelope's data
// into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "wait for upstream rate limit")
	}
	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()

	_, err := breaker.Call(c.breaker, func() (struct{}, error) {
		return struct{}{}, c.do(ctx, u.String(), out)
	})
	if errors.Is(err, breaker.ErrOpen) {
		return apperr.Upstream(err, "GET %s", path)
	}
	return err
}

func (c *Client) do(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errors.Wrap(err, "build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperr.Upstream(err, "GET %s", req.URL.Path)
	}
	defer resp.Body.Close()
	c.log.Trace("GET %s -> %d in %s", req.URL.RequestURI(), resp.StatusCode, time.Since(started))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperr.Upstream(err, "read %s", req.URL.Path)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperr.NotFound("resource", req.URL.Path)
	case resp.StatusCode == http.StatusBadRequest:
		return apperr.Validation("upstream rejected %s: %s", req.URL.RequestURI(), snippet(body))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return apperr.Upstream(nil, "GET %s: status %d: %s", req.URL.Path, resp.StatusCode, snippet(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return apperr.Upstream(err, "decode %s", req.URL.Path)
	}
	if !env.IsSuccessful {
		return apperr.Upstream(nil, "GET %s: %s", req.URL.Path, env.Message)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return apperr.NotFound("resource", req.URL.Path)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperr.Upstream(err, "decode %s data", req.URL.Path)
	}
	return nil
}

func snippet(b []byte) string {
	const n = 200
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

// Healthy reports an error while the circuit breaker is open.
func (c *Client) Healthy(context.Context) error {
	if s := c.breaker.State(); s == breaker.Open {
		return apperr.Upstream(breaker.ErrOpen, "upstream %s", c.base.Host)
	}
	return nil
}
