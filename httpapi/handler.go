// Copyright 2026 The pureflashblade-mcp Authors

package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pureflashblade/pureflashblade-mcp/fberrors"
	"github.com/pureflashblade/pureflashblade-mcp/flashblade"
	log "github.com/pureflashblade/pureflashblade-mcp/logger"
	"github.com/pureflashblade/pureflashblade-mcp/query"
)

const maxRequestBytes = 1 << 20

//Response :
type Response struct {
	Data interface{} `json:"data,omitempty"`
	Err  interface{} `json:"errors,omitempty"`
	// ContinuationToken is set when data holds only the first items of the collection
	ContinuationToken string `json:"continuation_token,omitempty"`
}

// QueryRequest is the body of POST /api/v1/query
type QueryRequest struct {
	query.Target
	Command    string                 `json:"command"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// ArrayFullRequest is the body of POST /api/v1/arrays/full
type ArrayFullRequest struct {
	query.Target
	Days int `json:"days,omitempty"`
}

// Handler serves the query service over HTTP
type Handler struct {
	service *query.Service
}

// NewHandler returns a Handler backed by service
func NewHandler(service *query.Service) *Handler {
	return &Handler{service: service}
}

//@APIVersion 1.0.0
//@Title GetHealth
//@Description reports that the server is up
//@Router /api/v1/health [get]
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	var resp Response
	resp.Data = map[string]string{"status": "ok"}
	writeResponse(w, http.StatusOK, resp)
}

//@APIVersion 1.0.0
//@Title GetCommands
//@Description lists the commands accepted by /api/v1/query
//@Router /api/v1/commands [get]
func (h *Handler) GetCommands(w http.ResponseWriter, r *http.Request) {
	var resp Response
	resp.Data = flashblade.Commands()
	writeResponse(w, http.StatusOK, resp)
}

//@APIVersion 1.0.0
//@Title RunQuery
//@Description runs one command against a FlashBlade
//@Accept json
//@Router /api/v1/query [post]
func (h *Handler) RunQuery(w http.ResponseWriter, r *http.Request) {
	var resp Response
	var req QueryRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleError(w, resp, err)
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		handleError(w, resp, fberrors.NewError(fberrors.InvalidArgument, "Missing command"))
		return
	}

	res, err := h.service.Query(r.Context(), req.Target, req.Command, req.Parameters)
	if err != nil {
		handleError(w, resp, err)
		return
	}
	resp.Data = json.RawMessage(res.Text)
	resp.ContinuationToken = res.ContinuationToken
	writeResponse(w, http.StatusOK, resp)
}

//@APIVersion 1.0.0
//@Title GetArrayFull
//@Description array information, space and performance in one report
//@Accept json
//@Router /api/v1/arrays/full [post]
func (h *Handler) GetArrayFull(w http.ResponseWriter, r *http.Request) {
	var resp Response
	var req ArrayFullRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleError(w, resp, err)
		return
	}

	out, err := h.service.ArrayFull(r.Context(), req.Target, req.Days)
	if err != nil {
		handleError(w, resp, err)
		return
	}
	resp.Data = out
	writeResponse(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fberrors.NewError(fberrors.InvalidArgument, "Missing arguments")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		return fberrors.NewErrorf(fberrors.InvalidArgument, "invalid request body: %v", err)
	}
	return nil
}

func handleError(w http.ResponseWriter, resp Response, err error) {
	log.Error("Err :", err.Error())
	fbErr := fberrors.NewError(fberrors.CodeOf(err), fberrors.TextOf(err))
	resp.Err = fbErr
	writeResponse(w, fbErr.Code.HTTPStatus(), resp)
}

func writeResponse(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		log.Debugf("unable to write response: %v", err)
	}
}
