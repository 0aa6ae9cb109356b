// Package backend talks to the wildfire data service: REST lookups for countries,
// detections, details and predictions, and server-sent-event streams for long running
// jobs (forecasts, analysis, data provisioning).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const userAgent = "firescope/2 (+https://github.com/whyfires/firescope)"

// Config configures a Client. Zero values get sensible defaults.
type Config struct {
	BaseURL string
	// GeoJSONURL serves /geojson/{name}.geojson; defaults to BaseURL.
	GeoJSONURL string
	Timeout    time.Duration
	RetryMax   int
	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Log          Logger
}

// Client is safe for concurrent use. REST GETs are retried. Other methods and stream
// opens start work on the backend and are sent once.
type Client struct {
	base   string
	geo    string
	rest   *retryablehttp.Client
	once   *retryablehttp.Client
	stream *retryablehttp.Client
	log    Logger
}

func newRetryClient(cfg Config, timeout time.Duration) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	rc.HTTPClient.Timeout = timeout
	rc.Logger = leveledLogger{cfg.Log}
	// Hand back the last response instead of a bare "giving up" error so the
	// status and body can be reported.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return rc
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5000"
	}
	if cfg.GeoJSONURL == "" {
		cfg.GeoJSONURL = cfg.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.Log == nil {
		cfg.Log = nopLogger{}
	}
	single := cfg
	single.RetryMax = 0
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		geo:    strings.TrimRight(cfg.GeoJSONURL, "/"),
		rest:   newRetryClient(cfg, cfg.Timeout),
		once:   newRetryClient(single, cfg.Timeout),
		stream: newRetryClient(single, 0),
		log:    cfg.Log,
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.base }

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body interface{}) (*retryablehttp.Request, error) {
	var payload interface{}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		payload = b
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, rawURL, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) url(root, path string, q url.Values) string {
	u := root + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// do sends a request and returns the body of a 2xx response. Non-2xx responses become
// ErrNoData (404) or *StatusError.
func (c *Client) do(ctx context.Context, method, rawURL string, body interface{}) ([]byte, error) {
	req, err := c.newRequest(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	c.log.Debugf("%s %s", method, rawURL)
	hc := c.rest
	if method != http.MethodGet {
		hc = c.once
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, b)
	}
	return sanitize(b), nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, c.url(c.base, path, q), nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	return c.do(ctx, http.MethodPost, c.url(c.base, path, nil), body)
}

var nonFinite = regexp.MustCompile(`([:\[,]\s*)-?(NaN|Infinity)\b`)

// sanitize replaces the bare NaN/Infinity tokens pandas can emit with null so the body
// is valid JSON again. Valid bodies are returned untouched.
func sanitize(b []byte) []byte {
	if len(b) == 0 || gjson.ValidBytes(b) || (!bytes.Contains(b, []byte("NaN")) && !bytes.Contains(b, []byte("Infinity"))) {
		return b
	}
	return nonFinite.ReplaceAll(b, []byte("${1}null"))
}
