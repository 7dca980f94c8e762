package hex

import (
	"fmt"

	"github.com/Backland-Labs/hexflow/internal/credentials"
	"github.com/Backland-Labs/hexflow/internal/logger"
	"github.com/Backland-Labs/hexflow/internal/metrics"
)

const defaultUserAgent = "hexflow"

// Client talks to the Hex API with one set of credentials
type Client struct {
	creds     *credentials.Credentials
	log       *logger.Logger
	metrics   *metrics.Metrics
	userAgent string
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger used for request logging
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics sets the collectors that record API requests
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a new Hex API client
func NewClient(creds *credentials.Credentials, opts ...Option) (*Client, error) {
	if creds == nil {
		return nil, fmt.Errorf("credentials are required")
	}

	c := &Client{
		creds:     creds,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Credentials returns the credentials the client authenticates with
func (c *Client) Credentials() *credentials.Credentials {
	return c.creds
}

func (c *Client) logger() *logger.Logger {
	if c.log != nil {
		return c.log
	}
	return logger.GetLogger()
}
