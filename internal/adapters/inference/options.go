package inference

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/mimicoo/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithModel sets the model name used in the endpoint path.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxRetries sets the number of attempts made while rate limited. One
// means no retry. Values below one keep the default.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoffBase sets the base delay of the 429 backoff.
func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.backoffBase = d
		}
	}
}

// WithRateLimit caps outbound requests per second. perSecond <= 0 disables
// the limiter.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithJitter overrides the jitter source. f must return values in [0,1).
func WithJitter(f func() float64) Option {
	return func(c *Client) {
		if f != nil {
			c.jitter = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
