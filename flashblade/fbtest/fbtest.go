// Copyright 2026 The pureflashblade-mcp Authors

// Package fbtest provides an in-process FlashBlade REST endpoint for tests
package fbtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// Request is a request the fake array received
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

type failure struct {
	status  int
	message string
}

// Array is a fake FlashBlade serving api_version, login, logout and GET collections
type Array struct {
	Server   *httptest.Server
	Token    string
	Versions []string
	// PageSize splits collections into continuation pages when non zero
	PageSize int

	mu          sync.Mutex
	collections map[string][]json.RawMessage
	failures    map[string]failure
	sessions    map[string]bool
	requests    []Request
	logins      int
	logouts     int
}

// NewArray starts a TLS fake array accepting token
func NewArray(token string) *Array {
	a := &Array{
		Token:       token,
		Versions:    []string{"1.12", "2.0", "2.4", "2.12"},
		collections: make(map[string][]json.RawMessage),
		failures:    make(map[string]failure),
		sessions:    make(map[string]bool),
	}
	a.Server = httptest.NewTLSServer(http.HandlerFunc(a.serve))
	return a
}

// URL returns the base URL of the fake array
func (a *Array) URL() string {
	return a.Server.URL
}

// Close shuts the server down
func (a *Array) Close() {
	a.Server.Close()
}

// SetItems replaces the items of the collection at path. Items must be compact JSON.
func (a *Array) SetItems(path string, items ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	raw := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		raw = append(raw, json.RawMessage(item))
	}
	a.collections[strings.Trim(path, "/")] = raw
}

// Fail makes every GET of path answer status with message in the errors list
func (a *Array) Fail(path string, status int, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[strings.Trim(path, "/")] = failure{status: status, message: message}
}

// ExpireSessions invalidates every session token handed out so far
func (a *Array) ExpireSessions() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions = make(map[string]bool)
}

// Logins returns the number of successful logins
func (a *Array) Logins() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.logins
}

// Logouts returns the number of logouts
func (a *Array) Logouts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.logouts
}

// Requests returns the collection reads received so far
func (a *Array) Requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Request(nil), a.requests...)
}

func (a *Array) highestVersion() string {
	best, bestMinor := "", -1
	for _, v := range a.Versions {
		if strings.HasPrefix(v, "2.") {
			if minor, err := strconv.Atoi(strings.TrimPrefix(v, "2.")); err == nil && minor > bestMinor {
				best, bestMinor = v, minor
			}
		}
	}
	return best
}

func (a *Array) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/api_version":
		writeJSON(w, http.StatusOK, map[string]interface{}{"versions": a.Versions})
	case r.Method == http.MethodPost && r.URL.Path == "/api/login":
		if r.Header.Get("api-token") != a.Token {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		a.logins++
		token := fmt.Sprintf("session-%d", a.logins)
		a.sessions[token] = true
		w.Header().Set("x-auth-token", token)
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": []map[string]string{{"username": "pureuser"}}})
	case r.Method == http.MethodPost && r.URL.Path == "/api/logout":
		a.logouts++
		delete(a.sessions, r.Header.Get("x-auth-token"))
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/"+a.highestVersion()+"/"):
		path := strings.TrimPrefix(r.URL.Path, "/api/"+a.highestVersion()+"/")
		a.requests = append(a.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Header: r.Header.Clone()})
		if !a.sessions[r.Header.Get("x-auth-token")] {
			writeError(w, http.StatusUnauthorized, "Session expired")
			return
		}
		if f, ok := a.failures[path]; ok {
			writeError(w, f.status, f.message)
			return
		}
		a.list(w, r, path)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (a *Array) list(w http.ResponseWriter, r *http.Request, path string) {
	items := a.collections[path]
	if items == nil {
		items = []json.RawMessage{}
	}
	start := 0
	if t := r.URL.Query().Get("continuation_token"); t != "" {
		start, _ = strconv.Atoi(t)
	}
	size := a.PageSize
	if l := r.URL.Query().Get("limit"); l != "" {
		size, _ = strconv.Atoi(l)
	}
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if size > 0 && start+size < end {
		end = start + size
	}

	resp := map[string]interface{}{
		"items":            items[start:end],
		"total_item_count": len(items),
	}
	if end < len(items) {
		resp["continuation_token"] = strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"errors": []map[string]string{{"message": message, "context": ""}},
	})
}
