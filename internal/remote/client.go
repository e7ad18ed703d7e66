package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrUnavailable is returned when the endpoint cannot be reached.
	ErrUnavailable = errors.New("remote ranking unavailable")
	// ErrRequestFailed is returned when the endpoint answers with an error.
	ErrRequestFailed = errors.New("remote ranking request failed")
)

const (
	recommendPath = "/recommendations/mood"
	healthPath    = "/health"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls a remote mood ranking endpoint.
type Client struct {
	client  *resty.Client
	baseURL string
}

// NewClient creates a Client for cfg.BaseURL.
func NewClient(cfg ClientConfig) *Client {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Client{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// BaseURL returns the endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Recommend posts payload and returns the decoded response. Transport errors
// wrap ErrUnavailable; non-2xx or success=false wrap ErrRequestFailed.
func (c *Client) Recommend(ctx context.Context, payload *Payload) (*Response, error) {
	var resp Response
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&resp).
		SetError(&resp).
		Post(c.baseURL + recommendPath)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if httpResp.IsError() {
		if resp.Error != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, httpResp.StatusCode(), resp.Error)
		}
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, httpResp.StatusCode())
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "success=false"
		}
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, msg)
	}

	return &resp, nil
}

// Health reports whether GET /health answers with a 2xx status.
func (c *Client) Health(ctx context.Context) bool {
	httpResp, err := c.client.R().
		SetContext(ctx).
		Get(c.baseURL + healthPath)
	if err != nil {
		return false
	}
	return httpResp.StatusCode() >= http.StatusOK && httpResp.StatusCode() < http.StatusMultipleChoices
}
