// Copyright 2026 The pureflashblade-mcp Authors

package flashblade

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pureflashblade/pureflashblade-mcp/fberrors"
	"github.com/pureflashblade/pureflashblade-mcp/flashblade/fbtest"
)

const testToken = "T-72a5f1c2-7b17-4a0b-9a55-6f2a1e4a7f10"

func newTestClient(t *testing.T, array *fbtest.Array, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(&Credentials{Host: array.URL(), APIToken: testToken}, opts...)
	require.NoError(t, err)
	return client
}

func rawStrings(items []json.RawMessage) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, string(item))
	}
	return out
}

func TestNewClientMissingCredentials(t *testing.T) {
	_, err := NewClient(&Credentials{Host: "10.0.0.5"})
	assert.Equal(t, fberrors.InvalidArgument, fberrors.CodeOf(err))
	_, err = NewClient(nil)
	assert.Equal(t, fberrors.InvalidArgument, fberrors.CodeOf(err))
}

func TestLoginNegotiatesVersion(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()

	client := newTestClient(t, array)
	require.NoError(t, client.Login(context.Background()))
	assert.Equal(t, "2.12", client.APIVersion())
	assert.True(t, client.LoggedIn())
	assert.Equal(t, 1, array.Logins())
}

func TestLoginErrors(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()

	client, err := NewClient(&Credentials{Host: array.URL(), APIToken: "T-wrong"})
	require.NoError(t, err)
	err = client.Login(context.Background())
	require.Error(t, err)
	assert.Equal(t, fberrors.Unauthenticated, fberrors.CodeOf(err))
	assert.Equal(t, "Invalid credentials", fberrors.TextOf(err))

	array.Versions = []string{"1.8", "1.12"}
	client = newTestClient(t, array)
	err = client.Login(context.Background())
	assert.Equal(t, fberrors.Unimplemented, fberrors.CodeOf(err))
}

func TestPickAPIVersion(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		want     string
		wantErr  bool
	}{
		{"Test numeric not lexical", []string{"2.2", "2.10", "2.9"}, "2.10", false},
		{"Test ignores 1.x", []string{"1.12", "2.0"}, "2.0", false},
		{"Test ignores garbage", []string{"2.x", " 2.3 "}, "2.3", false},
		{"Test no 2.x", []string{"1.0"}, "", true},
		{"Test empty", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickAPIVersion(tt.versions)
			if (err != nil) != tt.wantErr {
				t.Errorf("pickAPIVersion() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallKnownCommand(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	array.SetItems("file-systems", `{"name":"fs1","id":"1"}`, `{"name":"fs2","id":"2"}`)

	client := newTestClient(t, array)
	resp, err := client.Call(context.Background(), "get_file_systems", map[string]interface{}{
		"names":      []interface{}{"fs1", "fs2"},
		"total_only": true,
		"filter":     "provisioned>1",
		"destroyed":  false,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{`{"name":"fs1","id":"1"}`, `{"name":"fs2","id":"2"}`}, rawStrings(resp.Items))
	require.NotNil(t, resp.TotalItemCount)
	assert.Equal(t, 2, *resp.TotalItemCount)

	reqs := array.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/2.12/file-systems", reqs[0].Path)
	assert.Equal(t, "fs1,fs2", reqs[0].Query.Get("names"))
	assert.Equal(t, "true", reqs[0].Query.Get("total_only"))
	assert.Equal(t, "provisioned>1", reqs[0].Query.Get("filter"))
	assert.Equal(t, "false", reqs[0].Query.Get("destroyed"))
	assert.Equal(t, "session-1", reqs[0].Header.Get("x-auth-token"))
	assert.Equal(t, DefaultUserAgent, reqs[0].Header.Get("User-Agent"))
	assert.Len(t, reqs[0].Header.Get("X-Request-ID"), 36)
}

func TestCallEmptyCollection(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()

	client := newTestClient(t, array)
	resp, err := client.Call(context.Background(), "get_buckets", nil)
	require.NoError(t, err)
	assert.NotNil(t, resp.Items)
	assert.Len(t, resp.Items, 0)
}

func TestCallUnknownCommand(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()

	client := newTestClient(t, array)
	_, err := client.Call(context.Background(), "get_nope", nil)
	require.Error(t, err)
	assert.Equal(t, fberrors.NotFound, fberrors.CodeOf(err))
	assert.Equal(t, "method 'get_nope' not found", fberrors.TextOf(err))
	assert.Equal(t, 0, array.Logins())
}

func TestCallInvalidParameters(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()

	client := newTestClient(t, array)
	_, err := client.Call(context.Background(), "get_arrays", map[string]interface{}{"limit": "ten"})
	assert.Equal(t, fberrors.InvalidArgument, fberrors.CodeOf(err))
}

func TestGetPagination(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	array.PageSize = 2
	array.SetItems("buckets", `{"name":"b1"}`, `{"name":"b2"}`, `{"name":"b3"}`, `{"name":"b4"}`, `{"name":"b5"}`)

	client := newTestClient(t, array)
	resp, err := client.Call(context.Background(), "get_buckets", nil)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 5)
	assert.Equal(t, "", resp.ContinuationToken)
	assert.Len(t, array.Requests(), 3)

	// An explicit limit returns a single page
	resp, err = client.Call(context.Background(), "get_buckets", map[string]interface{}{"limit": 2})
	require.NoError(t, err)
	assert.Equal(t, []string{`{"name":"b1"}`, `{"name":"b2"}`}, rawStrings(resp.Items))
	assert.Equal(t, "2", resp.ContinuationToken)

	// and so does an explicit continuation token
	resp, err = client.Call(context.Background(), "get_buckets", map[string]interface{}{"continuation_token": "4"})
	require.NoError(t, err)
	assert.Equal(t, []string{`{"name":"b5"}`}, rawStrings(resp.Items))
}

func TestGetMaxPages(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	array.PageSize = 1
	array.SetItems("alerts", `{"id":1}`, `{"id":2}`, `{"id":3}`)

	client := newTestClient(t, array, WithMaxPages(2))
	resp, err := client.Call(context.Background(), "get_alerts", nil)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, "2", resp.ContinuationToken)
}

func TestGetReloginOnUnauthorized(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	array.SetItems("arrays", `{"name":"fb01"}`)

	client := newTestClient(t, array)
	_, err := client.Call(context.Background(), "get_arrays", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, array.Logins())

	array.ExpireSessions()
	resp, err := client.Call(context.Background(), "get_arrays", nil)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, 2, array.Logins())
}

func TestGetReloginOnlyOnce(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	array.Fail("arrays", http.StatusUnauthorized, "Session expired")

	client := newTestClient(t, array)
	_, err := client.Call(context.Background(), "get_arrays", nil)
	require.Error(t, err)
	assert.Equal(t, fberrors.Unauthenticated, fberrors.CodeOf(err))
	assert.Equal(t, 2, array.Logins())
	assert.Len(t, array.Requests(), 2)
}

func TestGetArrayErrorMessage(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()

	tests := []struct {
		status int
		code   fberrors.ErrorCode
	}{
		{http.StatusBadRequest, fberrors.InvalidArgument},
		{http.StatusForbidden, fberrors.PermissionDenied},
		{http.StatusNotFound, fberrors.NotFound},
		{http.StatusTooManyRequests, fberrors.ResourceExhausted},
		{http.StatusInternalServerError, fberrors.Internal},
	}
	client := newTestClient(t, array)
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			array.Fail("buckets", tt.status, "Invalid filter")
			_, err := client.Call(context.Background(), "get_buckets", map[string]interface{}{"filter": "x"})
			require.Error(t, err)
			assert.Equal(t, tt.code, fberrors.CodeOf(err))
			assert.Equal(t, "Invalid filter", fberrors.TextOf(err))
		})
	}
}

func TestLogout(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()

	client := newTestClient(t, array)
	// never logged in
	require.NoError(t, client.Logout(context.Background()))
	assert.Equal(t, 0, array.Logouts())

	require.NoError(t, client.Login(context.Background()))
	require.NoError(t, client.Logout(context.Background()))
	assert.False(t, client.LoggedIn())
	assert.Equal(t, 1, array.Logouts())
}

func TestErrorResponseMessage(t *testing.T) {
	e := &ErrorResponse{Errors: []ErrorDetail{
		{Message: "Item not found", Context: "fs9"},
		{Message: ""},
		{Message: "Second"},
	}}
	assert.Equal(t, "fs9: Item not found; Second", e.Message())
	var nilResp *ErrorResponse
	assert.Equal(t, "", nilResp.Message())
}
