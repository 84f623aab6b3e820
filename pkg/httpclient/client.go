package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "freebie-poster/1.0 (+https://t.me/altynmaturuen)"

// Client is the small HTTP surface used by fetchers, the crawler and the bot client.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
	PostJSON(ctx context.Context, url string, headers map[string]string, body any) (*resty.Response, error)
}

type restyClient struct {
	r *resty.Client
}

// NewRestyClient builds a Client with the given request timeout.
func NewRestyClient(timeout time.Duration) Client {
	r := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", defaultUserAgent)
	return &restyClient{r: r}
}

// Get issues a GET request. Non-2xx responses are returned without error;
// callers inspect StatusCode.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.r.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
}

// PostJSON sends body encoded as JSON.
func (c *restyClient) PostJSON(ctx context.Context, url string, headers map[string]string, body any) (*resty.Response, error) {
	return c.r.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
}
