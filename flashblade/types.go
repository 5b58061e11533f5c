// Copyright 2026 The pureflashblade-mcp Authors

package flashblade

import (
	"encoding/json"
	"strings"
)

// ListResponse is the collection envelope every FlashBlade REST 2.x GET endpoint returns.
// Items are kept as raw JSON, the array owns their schema.
type ListResponse struct {
	ContinuationToken string            `json:"continuation_token,omitempty"`
	TotalItemCount    *int              `json:"total_item_count,omitempty"`
	Items             []json.RawMessage `json:"items"`
	Total             []json.RawMessage `json:"total,omitempty"`
}

// ErrorDetail is one entry of the errors array the array returns on failure
type ErrorDetail struct {
	Message         string `json:"message"`
	Context         string `json:"context,omitempty"`
	LocationContext string `json:"location_context,omitempty"`
}

// ErrorResponse is the body of a failed REST call
type ErrorResponse struct {
	Errors []ErrorDetail `json:"errors,omitempty"`
}

// Message joins every error message, prefixed by its context when present
func (e *ErrorResponse) Message() string {
	if e == nil {
		return ""
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		if d.Message == "" {
			continue
		}
		if d.Context != "" {
			msgs = append(msgs, d.Context+": "+d.Message)
		} else {
			msgs = append(msgs, d.Message)
		}
	}
	return strings.Join(msgs, "; ")
}

type apiVersionResponse struct {
	Versions []string `json:"versions"`
}
