package listings

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

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// ErrFetchFailed covers transport failures and any non-2xx answer. Callers
// get no finer classification.
var ErrFetchFailed = errors.New("failed to fetch listings")

const maxPayload = 4 << 20

type Config struct {
	BaseURL string
	// Timeout bounds a whole request; zero means none.
	Timeout time.Duration
	// RetryMax is the number of extra attempts on 5xx/transport errors.
	RetryMax int
	// RatePerSec paces outbound requests; zero disables pacing.
	RatePerSec float64
	Logger     *slog.Logger
}

type Client struct {
	baseURL string
	http    *retryablehttp.Client
	limiter *rate.Limiter
}

func NewClient(cfg Config) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = max(cfg.RetryMax, 0)
	rc.HTTPClient.Timeout = cfg.Timeout
	// hand the last response back so status handling stays in one place
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if cfg.Logger != nil {
		rc.Logger = cfg.Logger.With("component", "listings-client")
	} else {
		rc.Logger = nil
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    rc,
	}
	if cfg.RatePerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Search issues GET /api/v1/listings with the present fields of p.
func (c *Client) Search(ctx context.Context, p SearchParams) (PaginatedListings, error) {
	var out PaginatedListings
	u := c.baseURL + "/api/v1/listings"
	if q := p.Encode(); q != "" {
		u += "?" + q
	}
	if err := c.getJSON(ctx, u, &out); err != nil {
		return PaginatedListings{}, err
	}
	return out, nil
}

// Listing fetches a single listing by id.
func (c *Client) Listing(ctx context.Context, id string) (Listing, error) {
	var out Listing
	u := fmt.Sprintf("%s/api/v1/listings/%s", c.baseURL, url.PathEscape(id))
	if err := c.getJSON(ctx, u, &out); err != nil {
		return Listing{}, err
	}
	return out, nil
}

// FairPrice fetches the price analysis of one listing.
func (c *Client) FairPrice(ctx context.Context, id string) (FairPrice, error) {
	var out FairPrice
	u := fmt.Sprintf("%s/api/v1/analysis/listings/%s/fair-price", c.baseURL, url.PathEscape(id))
	if err := c.getJSON(ctx, u, &out); err != nil {
		return FairPrice{}, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, u string, dst any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}
	raw, err := ioReadAllLimit(resp.Body, maxPayload)
	if err != nil {
		return err
	}
	// no schema validation: a shape mismatch surfaces as a decode error
	return json.Unmarshal(raw, dst)
}

func ioReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}
