// Copyright 2026 The pureflashblade-mcp Authors

package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	log "github.com/pureflashblade/pureflashblade-mcp/logger"
	"github.com/pureflashblade/pureflashblade-mcp/query"
	"github.com/pureflashblade/pureflashblade-mcp/util"
)

const shutdownTimeout = 10 * time.Second

// NewRouter creates a new mux.Router serving service
func NewRouter(service *query.Service) *mux.Router {
	h := NewHandler(service)
	routes := []util.Route{
		///////////////////////////////////////////////////////////////////////////////////////////
		// Endpoint:  		GET /api/v1/health
		// Description: 	Liveness of the server, no array is contacted
		// Sample Output:	{"data": {"status": "ok"}}
		///////////////////////////////////////////////////////////////////////////////////////////
		{
			Name:        "Health",
			Method:      "GET",
			Pattern:     "/api/v1/health",
			HandlerFunc: h.GetHealth,
		},

		///////////////////////////////////////////////////////////////////////////////////////////
		// Endpoint:  		GET /api/v1/commands
		// Description: 	Commands accepted by /api/v1/query
		// Sample Output:
		// {
		//     "data": [
		//         {"command": "get_active_directory", "path": "active-directory"},
		//         {"command": "get_arrays_performance", "path": "arrays/performance", "timeseries": true}
		//     ]
		// }
		///////////////////////////////////////////////////////////////////////////////////////////
		{
			Name:        "Commands",
			Method:      "GET",
			Pattern:     "/api/v1/commands",
			HandlerFunc: h.GetCommands,
		},

		///////////////////////////////////////////////////////////////////////////////////////////
		// Endpoint:  		POST /api/v1/query
		// Description: 	Runs a command against an array
		// Input Object:	{"host": "10.0.0.5", "api_token": "T-...", "command": "get_file_systems",
		//			 "parameters": {"names": ["fs1"]}}
		//			or {"array": "fb01", "command": "get_buckets"}
		// Sample Output:	{"data": [{"name": "fs1", ...}]}
		// Sample Error:	{"errors": {"code": 4, "text": "method 'get_x' not found"}}
		///////////////////////////////////////////////////////////////////////////////////////////
		{
			Name:        "Query",
			Method:      "POST",
			Pattern:     "/api/v1/query",
			HandlerFunc: h.RunQuery,
		},

		///////////////////////////////////////////////////////////////////////////////////////////
		// Endpoint:  		POST /api/v1/arrays/full
		// Description: 	Array information, space and performance over the last days (7 by default)
		// Input Object:	{"array": "fb01", "days": 7}
		// Sample Output:	{"data": "Arrays information: [...], space: [...], and performance: [...]"}
		///////////////////////////////////////////////////////////////////////////////////////////
		{
			Name:        "ArrayFull",
			Method:      "POST",
			Pattern:     "/api/v1/arrays/full",
			HandlerFunc: h.GetArrayFull,
		},
	}

	router := mux.NewRouter().StrictSlash(true)
	util.InitializeRouter(router, routes)
	return router
}

// Run serves handler on addr until ctx is done, then shuts down gracefully
func Run(ctx context.Context, addr string, handler http.Handler) error {
	log.Tracef(">>>>> Run, addr=%s", addr)
	defer log.Trace("<<<<< Run")

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("serving HTTP on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
