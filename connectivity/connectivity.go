// Copyright 2026 The pureflashblade-mcp Authors

package connectivity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pureflashblade/pureflashblade-mcp/fberrors"
	log "github.com/pureflashblade/pureflashblade-mcp/logger"
)

const (
	defaultTimeout = 60 * time.Second
	// response bodies larger than this are rejected
	maxResponseBytes = 64 << 20
)

// Client is a JSON over HTTP(S) client bound to one base URL
type Client struct {
	pathPrefix string
	client     *http.Client
}

// Request encapsulates a request to the Do* family of functions
type Request struct {
	// Action is the HTTP method to use (GET, POST, PUT, DELETE)
	Action string
	// Path is the path appended to the client's base URL
	Path string
	// Header holds additional request headers
	Header map[string]string
	// Query is encoded onto the request URL
	Query url.Values
	// Payload is an optional object that is JSON encoded as the request body
	Payload interface{}
	// Response is where a 2xx body is decoded to
	Response interface{}
	// ResponseError is where a non 2xx body is decoded to
	ResponseError interface{}
	// ResponseHeader is filled in with the response headers once the request completes
	ResponseHeader http.Header
}

// NewHTTPSClientWithTimeout returns a client with a custom overall request timeout
func NewHTTPSClientWithTimeout(url string, transport http.RoundTripper, timeout time.Duration) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		pathPrefix: strings.TrimRight(url, "/"),
		client:     &http.Client{Transport: transport, Timeout: timeout},
	}
}

// BaseURL returns the URL every request path is appended to
func (client *Client) BaseURL() string {
	return client.pathPrefix
}

// DoJSONWithContext submits r and decodes the JSON reply into r.Response or r.ResponseError.
// The HTTP status code is returned whenever a response was received.
func (client *Client) DoJSONWithContext(ctx context.Context, r *Request) (int, error) {
	if r == nil {
		return 0, fberrors.NewError(fberrors.InvalidArgument, "nil request")
	}

	var body io.Reader
	if r.Payload != nil {
		buf, err := json.Marshal(r.Payload)
		if err != nil {
			return 0, fberrors.NewError(fberrors.InvalidArgument, err)
		}
		body = bytes.NewReader(buf)
	}

	requestURL := client.pathPrefix + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		requestURL += "?" + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Action, requestURL, body)
	if err != nil {
		return 0, fberrors.NewError(fberrors.InvalidArgument, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Header {
		req.Header.Set(k, v)
	}
	log.Tracef("request: action=%s path=%s headers=%v", r.Action, requestURL, log.HeaderScrubber(req.Header))

	resp, err := client.client.Do(req)
	if err != nil {
		return 0, transportError(ctx, err)
	}
	defer resp.Body.Close()
	r.ResponseHeader = resp.Header

	data, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return resp.StatusCode, transportError(ctx, err)
	}
	if len(data) > maxResponseBytes {
		return resp.StatusCode, fberrors.NewErrorf(fberrors.ResourceExhausted, "response from %s exceeds %d bytes", r.Path, maxResponseBytes)
	}
	log.Tracef("response: status=%d length=%d", resp.StatusCode, len(data))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if r.ResponseError != nil && len(data) > 0 {
			if decodeErr := json.Unmarshal(data, r.ResponseError); decodeErr != nil {
				log.Debugf("unable to decode error body from %s: %v", r.Path, decodeErr)
			}
		}
		return resp.StatusCode, fberrors.NewErrorf(fberrors.CodeFromHTTPStatus(resp.StatusCode),
			"%s %s failed with status %d", r.Action, r.Path, resp.StatusCode)
	}

	if r.Response != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, r.Response); err != nil {
			return resp.StatusCode, fberrors.NewErrorf(fberrors.DataLoss, "unable to decode response from %s: %v", r.Path, err)
		}
	}
	return resp.StatusCode, nil
}

func transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return fberrors.NewError(fberrors.Canceled, err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fberrors.NewError(fberrors.Timeout, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fberrors.NewError(fberrors.Timeout, err)
	}
	return fberrors.NewError(fberrors.ConnectionFailed, fmt.Sprintf("%v", err))
}
