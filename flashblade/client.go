// Copyright 2026 The pureflashblade-mcp Authors

package flashblade

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/pureflashblade/pureflashblade-mcp/connectivity"
	"github.com/pureflashblade/pureflashblade-mcp/fberrors"
	log "github.com/pureflashblade/pureflashblade-mcp/logger"
)

const (
	apiVersionPath = "api/api_version"
	loginPath      = "api/login"
	logoutPath     = "api/logout"

	apiTokenHeader  = "api-token"
	authTokenHeader = "x-auth-token"
	requestIDHeader = "X-Request-ID"
	userAgentHeader = "User-Agent"

	// DefaultUserAgent is sent with every REST request
	DefaultUserAgent = "pureflashblade-mcp/0.1.0"
	// DefaultTimeout bounds a single REST request
	DefaultTimeout = 30 * time.Second
	// MaxPages is the most continuation pages a single Get follows
	MaxPages = 100
)

// Client talks to the REST 2.x API of a single FlashBlade
type Client struct {
	conn      *connectivity.Client
	creds     Credentials
	userAgent string
	maxPages  int

	lock       sync.Mutex
	apiVersion string
	authToken  string
}

type clientOptions struct {
	userAgent string
	maxPages  int
}

// Option customizes a Client
type Option func(*clientOptions)

// WithUserAgent overrides DefaultUserAgent
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) { o.userAgent = ua }
}

// WithMaxPages overrides MaxPages
func WithMaxPages(n int) Option {
	return func(o *clientOptions) { o.maxPages = n }
}

// NewClient returns a Client for creds. No request is made until Login or Get.
func NewClient(creds *Credentials, opts ...Option) (*Client, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}
	o := &clientOptions{userAgent: DefaultUserAgent, maxPages: MaxPages}
	for _, opt := range opts {
		opt(o)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !creds.VerifySSL} // #nosec G402
	if o.maxPages <= 0 {
		o.maxPages = MaxPages
	}
	timeout := creds.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		conn:      connectivity.NewHTTPSClientWithTimeout(creds.BaseURL(), transport, timeout),
		creds:     *creds,
		userAgent: o.userAgent,
		maxPages:  o.maxPages,
	}, nil
}

// Host returns the base URL of the array
func (c *Client) Host() string {
	return c.conn.BaseURL()
}

// APIVersion returns the REST version negotiated by the last Login
func (c *Client) APIVersion() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.apiVersion
}

// LoggedIn reports whether the client holds a session token
func (c *Client) LoggedIn() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.authToken != ""
}

// Login negotiates the highest REST 2.x version the array offers and exchanges the API
// token for a session token.
func (c *Client) Login(ctx context.Context) error {
	log.Tracef(">>>>> Login, host=%s", c.Host())
	defer log.Trace("<<<<< Login")

	c.lock.Lock()
	defer c.lock.Unlock()
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) error {
	span, ctx := log.StartSpan(ctx, "flashblade.login")
	defer span.Finish()

	versions := &apiVersionResponse{}
	apiErr := &ErrorResponse{}
	_, err := c.conn.DoJSONWithContext(ctx, &connectivity.Request{
		Action:        http.MethodGet,
		Path:          apiVersionPath,
		Header:        c.headers(""),
		Response:      versions,
		ResponseError: apiErr,
	})
	if err != nil {
		return arrayError(err, apiErr)
	}
	version, err := pickAPIVersion(versions.Versions)
	if err != nil {
		return err
	}

	headers := c.headers("")
	headers[apiTokenHeader] = c.creds.APIToken
	apiErr = &ErrorResponse{}
	req := &connectivity.Request{
		Action:        http.MethodPost,
		Path:          loginPath,
		Header:        headers,
		ResponseError: apiErr,
	}
	if _, err = c.conn.DoJSONWithContext(ctx, req); err != nil {
		return arrayError(err, apiErr)
	}
	token := req.ResponseHeader.Get(authTokenHeader)
	if token == "" {
		return fberrors.NewErrorf(fberrors.Unauthenticated, "login to %s returned no %s header", c.Host(), authTokenHeader)
	}

	c.apiVersion = version
	c.authToken = token
	log.Infof("logged in to %s using REST %s", c.Host(), version)
	return nil
}

// Logout ends the session. It is a no-op when the client never logged in.
func (c *Client) Logout(ctx context.Context) error {
	log.Tracef(">>>>> Logout, host=%s", c.Host())
	defer log.Trace("<<<<< Logout")

	c.lock.Lock()
	defer c.lock.Unlock()
	if c.authToken == "" {
		return nil
	}
	token := c.authToken
	c.authToken = ""

	apiErr := &ErrorResponse{}
	_, err := c.conn.DoJSONWithContext(ctx, &connectivity.Request{
		Action:        http.MethodPost,
		Path:          logoutPath,
		Header:        c.headers(token),
		ResponseError: apiErr,
	})
	return arrayError(err, apiErr)
}

// session returns the current version and token, logging in first if needed
func (c *Client) session(ctx context.Context) (string, string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.authToken == "" {
		if err := c.loginLocked(ctx); err != nil {
			return "", "", err
		}
	}
	return c.apiVersion, c.authToken, nil
}

// relogin replaces a session token the array rejected. A concurrent caller that already
// replaced stale is not repeated.
func (c *Client) relogin(ctx context.Context, stale string) (string, string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.authToken == "" || c.authToken == stale {
		c.authToken = ""
		if err := c.loginLocked(ctx); err != nil {
			return "", "", err
		}
	}
	return c.apiVersion, c.authToken, nil
}

// Get reads the collection at path. When paginate is set, continuation tokens are followed
// until the collection is exhausted or MaxPages pages were read.
func (c *Client) Get(ctx context.Context, path string, query url.Values, paginate bool) (*ListResponse, error) {
	log.Tracef(">>>>> Get, path=%s query=%v", path, query)
	defer log.Trace("<<<<< Get")

	span, ctx := log.StartSpan(ctx, "flashblade.get")
	defer span.Finish()
	span.SetTag("path", path)

	version, token, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}

	result := &ListResponse{Items: []json.RawMessage{}}
	relogged := false
	for page := 1; ; {
		resp := &ListResponse{}
		status, err := c.get(ctx, version, token, path, q, resp)
		if status == http.StatusUnauthorized && !relogged {
			relogged = true
			log.Infof("session to %s was rejected, logging in again", c.Host())
			log.LogToSpan(ctx, "session rejected, logging in again")
			if version, token, err = c.relogin(ctx, token); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		result.Items = append(result.Items, resp.Items...)
		if resp.TotalItemCount != nil {
			result.TotalItemCount = resp.TotalItemCount
		}
		if result.Total == nil && len(resp.Total) > 0 {
			result.Total = resp.Total
		}
		result.ContinuationToken = resp.ContinuationToken

		if !paginate || resp.ContinuationToken == "" {
			break
		}
		if page >= c.maxPages {
			log.Warnf("stopped reading %s after %d pages", path, page)
			break
		}
		q.Set("continuation_token", resp.ContinuationToken)
		page++
	}
	span.SetTag("items", len(result.Items))
	return result, nil
}

func (c *Client) get(ctx context.Context, version, token, path string, q url.Values, out *ListResponse) (int, error) {
	apiErr := &ErrorResponse{}
	status, err := c.conn.DoJSONWithContext(ctx, &connectivity.Request{
		Action:        http.MethodGet,
		Path:          "api/" + version + "/" + strings.TrimLeft(path, "/"),
		Header:        c.headers(token),
		Query:         q,
		Response:      out,
		ResponseError: apiErr,
	})
	return status, arrayError(err, apiErr)
}

// Call runs command with free form params. This is the dispatch used by every surface.
func (c *Client) Call(ctx context.Context, command string, params map[string]interface{}) (*ListResponse, error) {
	log.Tracef(">>>>> Call, command=%s", command)
	defer log.Trace("<<<<< Call")

	ep, ok := LookupEndpoint(command)
	if !ok {
		return nil, fberrors.NewErrorf(fberrors.NotFound, "method '%s' not found", command)
	}
	qp, err := DecodeQueryParams(params)
	if err != nil {
		return nil, err
	}
	query, err := qp.Encode()
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, ep.Path, query, qp.Paginate())
}

func (c *Client) headers(token string) map[string]string {
	h := map[string]string{
		requestIDHeader: uuid.NewV4().String(),
		userAgentHeader: c.userAgent,
	}
	if token != "" {
		h[authTokenHeader] = token
	}
	return h
}

// arrayError prefers the message the array put in its errors list over the generic status text
func arrayError(err error, apiErr *ErrorResponse) error {
	if err == nil {
		return nil
	}
	if msg := apiErr.Message(); msg != "" {
		return fberrors.NewError(fberrors.CodeOf(err), msg)
	}
	return err
}

// pickAPIVersion returns the highest 2.x version in versions
func pickAPIVersion(versions []string) (string, error) {
	best, bestMinor := "", -1
	for _, v := range versions {
		parts := strings.SplitN(strings.TrimSpace(v), ".", 2)
		if len(parts) != 2 || parts[0] != "2" {
			continue
		}
		minor, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		if minor > bestMinor {
			best, bestMinor = strings.TrimSpace(v), minor
		}
	}
	if best == "" {
		return "", fberrors.NewErrorf(fberrors.Unimplemented, "array offers no REST 2.x version, got %v", versions)
	}
	return best, nil
}
