// Copyright 2026 The pureflashblade-mcp Authors

package util

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/pureflashblade/pureflashblade-mcp/logger"
)

// Route describes one REST endpoint served by a mux.Router
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// InitializeRouter registers every route on router, each wrapped with the HTTP logger
func InitializeRouter(router *mux.Router, routes []Route) {
	for _, route := range routes {
		var handler http.Handler = route.HandlerFunc
		handler = log.HTTPLogger(handler, route.Name)

		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(handler)
	}
}
