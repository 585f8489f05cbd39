// Package cfimages talks to the Cloudflare Images API.
//
// Every call reports success as a bool. Failures are logged here and never
// returned to the caller: the image CDN is a best-effort mirror of objects
// whose primary copy lives in remote storage.
package cfimages

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dmitrijs2005/remotefiles/internal/common"
	"github.com/dmitrijs2005/remotefiles/internal/logging"
	"github.com/dmitrijs2005/remotefiles/internal/metrics"
)

// DefaultAPIURL is the v1 images endpoint; %s is replaced by the account id.
const DefaultAPIURL = "https://api.cloudflare.com/client/v4/accounts/%s/images/v1"

const accountSlot = "%s"

// Config holds the credentials and endpoint template. APIURL must contain
// exactly one %s, which is substituted with Account.
type Config struct {
	Token   string
	Account string
	APIURL  string
	Timeout time.Duration
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// apiResponse is the envelope every Images API call answers with.
type apiResponse struct {
	Success bool            `json:"success"`
	Errors  []apiError      `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

// Client talks to the Cloudflare Images API of one account. Every call
// reports success as a bool and logs the reason of a failure.
type Client struct {
	http    *resty.Client
	apiURL  string
	logger  logging.Logger
	metrics *metrics.Metrics
}

// Option customizes a Client.
type Option func(*Client)

// WithMetrics counts every call by operation and outcome.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New validates cfg and builds a client. Any missing value is a
// configuration error reported here rather than on first use.
func New(cfg Config, l logging.Logger, opts ...Option) (*Client, error) {
	if cfg.Token == "" || cfg.Account == "" || cfg.APIURL == "" {
		return nil, fmt.Errorf("%w: cloudflare images token, account and apiUrl are required", common.ErrInvalidConfig)
	}
	if n := strings.Count(cfg.APIURL, accountSlot); n != 1 {
		return nil, fmt.Errorf("%w: cloudflare images apiUrl must contain exactly one %q, found %d",
			common.ErrInvalidConfig, accountSlot, n)
	}

	hc := resty.New().SetAuthToken(cfg.Token)
	if cfg.Timeout > 0 {
		hc.SetTimeout(cfg.Timeout)
	}

	c := &Client{
		http:   hc,
		apiURL: strings.Replace(cfg.APIURL, accountSlot, cfg.Account, 1),
		logger: l.With("module", "cfimages"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UploadURL asks Cloudflare to fetch sourceURL and store it under id.
// A 409 means an image with this id already exists and counts as success.
func (c *Client) UploadURL(ctx context.Context, sourceURL, id string) bool {
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{"url": sourceURL, "id": id}).
		Post(c.apiURL)
	if err != nil {
		c.logger.Error(ctx, "image upload failed", "id", id, "error", err)
		c.metrics.ObserveCDN("upload", false)
		return false
	}
	if resp.StatusCode() == http.StatusConflict {
		c.logger.Debug(ctx, "image already exists", "id", id)
		c.metrics.ObserveCDN("upload", true)
		return true
	}

	ok := c.parseResponse(ctx, resp, id, "upload")
	c.metrics.ObserveCDN("upload", ok)
	return ok
}

// Delete removes the image stored under id. A 404 is a failure like any other.
func (c *Client) Delete(ctx context.Context, id string) bool {
	resp, err := c.http.R().SetContext(ctx).Delete(c.imageURL(id))
	if err != nil {
		c.logger.Error(ctx, "image delete failed", "id", id, "error", err)
		c.metrics.ObserveCDN("delete", false)
		return false
	}

	ok := c.parseResponse(ctx, resp, id, "delete")
	c.metrics.ObserveCDN("delete", ok)
	return ok
}

// Get returns the raw response body for id, or nil on any failure.
func (c *Client) Get(ctx context.Context, id string) []byte {
	resp, err := c.http.R().SetContext(ctx).Get(c.imageURL(id))
	if err != nil {
		c.logger.Error(ctx, "image get failed", "id", id, "error", err)
		c.metrics.ObserveCDN("get", false)
		return nil
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.Error(ctx, "image get failed", "id", id, "status", resp.StatusCode())
		c.metrics.ObserveCDN("get", false)
		return nil
	}
	c.metrics.ObserveCDN("get", true)
	return resp.Body()
}

func (c *Client) imageURL(id string) string {
	return c.apiURL + "/" + url.PathEscape(id)
}

// parseResponse: only a 200 whose body decodes with success=true is a success.
func (c *Client) parseResponse(ctx context.Context, resp *resty.Response, id, op string) bool {
	if resp.StatusCode() != http.StatusOK {
		c.logger.Error(ctx, "image cdn request failed", "op", op, "id", id, "status", resp.StatusCode())
		return false
	}

	var body apiResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		c.logger.Error(ctx, "image cdn response undecodable", "op", op, "id", id, "error", err)
		return false
	}
	if !body.Success {
		c.logger.Error(ctx, "image cdn reported failure", "op", op, "id", id, "errors", body.Errors)
		return false
	}
	return true
}
