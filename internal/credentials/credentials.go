// Package credentials holds Hex API credentials and turns them into
// authenticated, per-call HTTP sessions.
//
// Credentials are immutable once built. The token is wrapped in a Secret so
// it is masked wherever it is formatted, encoded or logged.
//
// Example usage:
//
//	creds, err := credentials.New("app.hex.tech", token)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session := creds.Open()
//	defer session.Close()
//	resp, err := session.Get(session.BaseURL + "/project/123/runs")
package credentials

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const (
	// DefaultDomain is the domain of the hosted Hex deployment
	DefaultDomain = "app.hex.tech"

	// DefaultTimeout bounds a single API call
	DefaultTimeout = 30 * time.Second

	apiPath = "/api/v1"
)

// ErrMissingToken is returned when credentials are built without a token
var ErrMissingToken = errors.New("hex token is required")

// Secret is a string that never reveals its value when printed or encoded
type Secret string

const masked = "**********"

// Value returns the raw secret
func (s Secret) Value() string { return string(s) }

// String implements fmt.Stringer
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return masked
}

// GoString implements fmt.GoStringer so %#v stays masked
func (s Secret) GoString() string { return s.String() }

// MarshalText implements encoding.TextMarshaler
func (s Secret) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// MarshalJSON implements json.Marshaler
func (s Secret) MarshalJSON() ([]byte, error) { return []byte(`"` + s.String() + `"`), nil }

// Credentials authenticate requests against one Hex deployment
type Credentials struct {
	domain  string
	token   Secret
	timeout time.Duration
}

// Option configures Credentials
type Option func(*Credentials)

// WithTimeout sets the per-request timeout of sessions opened from the credentials
func WithTimeout(d time.Duration) Option {
	return func(c *Credentials) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates credentials for the given domain and token. An empty domain
// falls back to DefaultDomain.
func New(domain, token string, opts ...Option) (*Credentials, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	domain = strings.TrimSpace(domain)
	if domain == "" {
		domain = DefaultDomain
	}

	c := &Credentials{
		domain:  domain,
		token:   Secret(token),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Domain returns the configured domain
func (c *Credentials) Domain() string { return c.domain }

// Token returns the masked token
func (c *Credentials) Token() Secret { return c.token }

// Timeout returns the per-request timeout
func (c *Credentials) Timeout() time.Duration { return c.timeout }

// BaseURL returns the API root, https://{domain}/api/v1. A domain that
// already carries an http or https scheme is used as given.
func (c *Credentials) BaseURL() string {
	base := c.domain
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, apiPath) {
		return base
	}
	return base + apiPath
}

// String implements fmt.Stringer without exposing the token
func (c *Credentials) String() string {
	return "Credentials{domain: " + c.domain + ", token: " + c.token.String() + "}"
}

// Session is an authenticated HTTP client scoped to one API call. Close
// releases its connections.
type Session struct {
	*http.Client
	BaseURL string

	transport *http.Transport
}

// Open creates a fresh session. Every request sent through it carries
// "Authorization: Bearer <token>" and is traced by otelhttp.
func (c *Credentials) Open() *Session {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &Session{
		Client: &http.Client{
			Timeout: c.timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{
					AccessToken: c.token.Value(),
					TokenType:   "Bearer",
				}),
				Base: otelhttp.NewTransport(transport),
			},
		},
		BaseURL:   c.BaseURL(),
		transport: transport,
	}
}

// Close releases idle connections held by the session
func (s *Session) Close() {
	s.transport.CloseIdleConnections()
}
