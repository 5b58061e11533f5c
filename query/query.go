// Copyright 2026 The pureflashblade-mcp Authors

package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pureflashblade/pureflashblade-mcp/config"
	"github.com/pureflashblade/pureflashblade-mcp/fberrors"
	"github.com/pureflashblade/pureflashblade-mcp/flashblade"
	log "github.com/pureflashblade/pureflashblade-mcp/logger"
)

const (
	// DefaultDays is the performance window of the array report
	DefaultDays = 7

	cmdArrays            = "get_arrays"
	cmdArraysSpace       = "get_arrays_space"
	cmdArraysPerformance = "get_arrays_performance"
)

// Target says which array a query goes to: explicit credentials, or a configured profile
type Target struct {
	Array    string `json:"array,omitempty" mapstructure:"array"`
	Host     string `json:"host,omitempty" mapstructure:"host"`
	APIToken string `json:"api_token,omitempty" mapstructure:"api_token"`
	// VerifySSL applies to explicit host and api_token only, profiles carry their own
	VerifySSL *bool `json:"verify_ssl,omitempty" mapstructure:"verify_ssl"`
}

// Result is the rendered outcome of one command
type Result struct {
	Text string
	// ContinuationToken is set when the array holds more items than were read
	ContinuationToken string
}

// Notifier receives a log line for every response produced
type Notifier interface {
	Notify(ctx context.Context, level, message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, level, message string)

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, level, message string) {
	f(ctx, level, message)
}

// Service runs commands against FlashBlade arrays and renders the results as JSON text
type Service struct {
	store    *config.Store
	sessions *flashblade.SessionCache
	notifier Notifier
	now      func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithNotifier sets the notifier responses are reported to
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock replaces time.Now, used for the performance window
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service resolving targets through store and reusing sessions
func NewService(store *config.Store, sessions *flashblade.SessionCache, opts ...Option) *Service {
	s := &Service{
		store:    store,
		sessions: sessions,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Credentials resolves target. Explicit host and api_token win, then the named profile, then
// a profile matching the host, then the default profile.
func (s *Service) Credentials(target Target) (*flashblade.Credentials, error) {
	cfg := s.store.Get()
	host := strings.TrimSpace(target.Host)
	token := strings.TrimSpace(target.APIToken)

	if host != "" && token != "" {
		args := map[string]interface{}{"host": host, "api_token": token}
		if target.VerifySSL != nil {
			args["verify_ssl"] = *target.VerifySSL
		}
		creds, err := flashblade.CreateCredentials(args)
		if err != nil {
			return nil, err
		}
		creds.Timeout = cfg.RequestTimeout
		return creds, nil
	}

	if strings.TrimSpace(target.Array) != "" {
		p, err := cfg.Profile(target.Array)
		if err != nil {
			return nil, fberrors.NewError(fberrors.InvalidArgument, fberrors.TextOf(err))
		}
		return profileCredentials(p, cfg), nil
	}

	if host != "" {
		for _, name := range cfg.ProfileNames() {
			if p := cfg.Arrays[name]; strings.EqualFold(p.Host, host) {
				return profileCredentials(p, cfg), nil
			}
		}
		return nil, fberrors.NewError(fberrors.InvalidArgument, "missing host or api_token")
	}

	if token == "" {
		if p, err := cfg.Profile(""); err == nil {
			return profileCredentials(p, cfg), nil
		}
	}
	return nil, fberrors.NewError(fberrors.InvalidArgument, "missing host or api_token")
}

func profileCredentials(p config.ArrayProfile, cfg *config.Config) *flashblade.Credentials {
	return &flashblade.Credentials{
		Host:      p.Host,
		APIToken:  p.APIToken,
		VerifySSL: p.VerifySSL,
		Timeout:   cfg.RequestTimeout,
	}
}

// Run executes command against target and returns the items as a JSON array. When the call
// fails the returned text is the error object reported to callers, alongside the error.
// A target that cannot be resolved returns an empty text and the error.
func (s *Service) Run(ctx context.Context, target Target, command string, params map[string]interface{}) (string, error) {
	res, err := s.Query(ctx, target, command, params)
	if res == nil {
		return "", err
	}
	return res.Text, err
}

// Query is Run that also reports whether the array has more items. A nil Result means the
// target could not be resolved.
func (s *Service) Query(ctx context.Context, target Target, command string, params map[string]interface{}) (*Result, error) {
	log.Tracef(">>>>> Query, command=%s", command)
	defer log.Trace("<<<<< Query")

	span, ctx := log.StartSpan(ctx, "query.run")
	defer span.Finish()
	span.SetTag("command", command)

	creds, err := s.Credentials(target)
	if err != nil {
		return nil, err
	}

	resp, err := s.call(ctx, creds, command, params)
	if err != nil {
		log.Errorf("%s against %s failed: %v", command, creds.Host, err)
		span.SetTag("error", true)
		out := ErrorJSON(command, err)
		s.notify(ctx, "info", fmt.Sprintf("%s: %s", command, out))
		return &Result{Text: out}, err
	}

	res := &Result{Text: Serialize(resp.Items), ContinuationToken: resp.ContinuationToken}
	s.notify(ctx, "info", fmt.Sprintf("%s: %s", command, res.Text))
	if res.ContinuationToken != "" {
		log.Warnf("%s returned %d items, more are available", command, len(resp.Items))
		s.notify(ctx, "warning", fmt.Sprintf("%s: %d items returned, more are available with continuation_token %s",
			command, len(resp.Items), res.ContinuationToken))
	}
	return res, nil
}

func (s *Service) call(ctx context.Context, creds *flashblade.Credentials, command string, params map[string]interface{}) (*flashblade.ListResponse, error) {
	if _, ok := flashblade.LookupEndpoint(command); !ok {
		return nil, fberrors.NewErrorf(fberrors.NotFound, "method '%s' not found", command)
	}
	client, release, err := s.sessions.Acquire(ctx, creds)
	if err != nil {
		return nil, err
	}
	defer release()

	resp, err := client.Call(ctx, command, params)
	if fberrors.CodeOf(err) == fberrors.Unauthenticated {
		s.sessions.Evict(ctx, creds)
	}
	return resp, err
}

// ArrayFull reports the array information, its space and its performance over the last days
// days. The three reads run concurrently; the report only fails when none of them succeeded.
func (s *Service) ArrayFull(ctx context.Context, target Target, days int) (string, error) {
	log.Tracef(">>>>> ArrayFull, days=%d", days)
	defer log.Trace("<<<<< ArrayFull")

	span, ctx := log.StartSpan(ctx, "query.array_full")
	defer span.Finish()

	if _, err := s.Credentials(target); err != nil {
		return "", err
	}
	if days <= 0 {
		days = DefaultDays
	}
	end := s.now()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)

	parts := []struct {
		command string
		params  map[string]interface{}
	}{
		{cmdArrays, nil},
		{cmdArraysSpace, nil},
		{cmdArraysPerformance, map[string]interface{}{
			"start_time": start.UnixNano() / int64(time.Millisecond),
			"end_time":   end.UnixNano() / int64(time.Millisecond),
		}},
	}

	results := make([]string, len(parts))
	errs := make([]error, len(parts))
	var g errgroup.Group
	for i := range parts {
		i := i
		g.Go(func() error {
			results[i], errs[i] = s.Run(ctx, target, parts[i].command, parts[i].params)
			return nil
		})
	}
	_ = g.Wait()

	text := fmt.Sprintf("Arrays information: %s, space: %s, and performance: %s", results[0], results[1], results[2])
	for _, err := range errs {
		if err == nil {
			return text, nil
		}
	}
	return text, errs[0]
}

func (s *Service) notify(ctx context.Context, level, message string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, level, message)
	}
}

// Serialize renders items as a JSON array, each item byte for byte as the array sent it
func Serialize(items []json.RawMessage) string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(item)
	}
	buf.WriteByte(']')
	return buf.String()
}

// ErrorJSON is the error object returned in place of items when command failed
func ErrorJSON(command string, err error) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(map[string]string{
		"error": fmt.Sprintf("Invalid response from %s: %s", command, fberrors.TextOf(err)),
	})
	return strings.TrimSuffix(buf.String(), "\n")
}
