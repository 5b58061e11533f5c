// Copyright 2026 The pureflashblade-mcp Authors

package flashblade

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pureflashblade/pureflashblade-mcp/fberrors"
)

// QueryParams are the query string parameters common to FlashBlade GET endpoints.
// Keys the struct does not know about are carried in Extra and passed through as is.
type QueryParams struct {
	Names             []string               `mapstructure:"names"`
	IDs               []string               `mapstructure:"ids"`
	Filter            string                 `mapstructure:"filter"`
	Sort              []string               `mapstructure:"sort"`
	Limit             *int                   `mapstructure:"limit"`
	Offset            *int                   `mapstructure:"offset"`
	ContinuationToken string                 `mapstructure:"continuation_token"`
	StartTime         *int64                 `mapstructure:"start_time"`
	EndTime           *int64                 `mapstructure:"end_time"`
	Resolution        *int64                 `mapstructure:"resolution"`
	TotalOnly         *bool                  `mapstructure:"total_only"`
	Extra             map[string]interface{} `mapstructure:",remain"`
}

// DecodeQueryParams decodes a free form parameter object, as received from a tool call,
// into QueryParams. Single values are accepted where lists are expected.
func DecodeQueryParams(params map[string]interface{}) (*QueryParams, error) {
	qp := &QueryParams{}
	if len(params) == 0 {
		return qp, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           qp,
		DecodeHook:       splitCommaHook,
	})
	if err != nil {
		return nil, fberrors.NewError(fberrors.Internal, err)
	}
	if err := decoder.Decode(params); err != nil {
		return nil, fberrors.NewErrorf(fberrors.InvalidArgument, "invalid parameters: %v", err)
	}
	return qp, nil
}

// splitCommaHook turns "a,b" into []string{"a", "b"} for list fields
func splitCommaHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	s, ok := data.(string)
	if !ok || to.Kind() != reflect.Slice {
		return data, nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// Paginate reports whether the client should follow continuation tokens on its own.
// A caller that pages explicitly gets exactly the page it asked for.
func (qp *QueryParams) Paginate() bool {
	return qp.Limit == nil && qp.ContinuationToken == ""
}

// Encode renders the parameters as a query string. Lists are comma joined and booleans
// are lower case, the way the REST API expects them.
func (qp *QueryParams) Encode() (url.Values, error) {
	v := url.Values{}
	setList(v, "names", qp.Names)
	setList(v, "ids", qp.IDs)
	setList(v, "sort", qp.Sort)
	if qp.Filter != "" {
		v.Set("filter", qp.Filter)
	}
	if qp.Limit != nil {
		v.Set("limit", strconv.Itoa(*qp.Limit))
	}
	if qp.Offset != nil {
		v.Set("offset", strconv.Itoa(*qp.Offset))
	}
	if qp.ContinuationToken != "" {
		v.Set("continuation_token", qp.ContinuationToken)
	}
	if qp.StartTime != nil {
		v.Set("start_time", strconv.FormatInt(*qp.StartTime, 10))
	}
	if qp.EndTime != nil {
		v.Set("end_time", strconv.FormatInt(*qp.EndTime, 10))
	}
	if qp.Resolution != nil {
		v.Set("resolution", strconv.FormatInt(*qp.Resolution, 10))
	}
	if qp.TotalOnly != nil {
		v.Set("total_only", strconv.FormatBool(*qp.TotalOnly))
	}

	keys := make([]string, 0, len(qp.Extra))
	for k := range qp.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s, ok, err := encodeValue(qp.Extra[k])
		if err != nil {
			return nil, fberrors.NewErrorf(fberrors.InvalidArgument, "invalid value for parameter %s: %v", k, err)
		}
		if ok {
			v.Set(k, s)
		}
	}
	return v, nil
}

func setList(v url.Values, key string, list []string) {
	if len(list) > 0 {
		v.Set(key, strings.Join(list, ","))
	}
}

func encodeValue(value interface{}) (string, bool, error) {
	switch t := value.(type) {
	case nil:
		return "", false, nil
	case string:
		return t, true, nil
	case bool:
		return strconv.FormatBool(t), true, nil
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), true, nil
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true, nil
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", t), true, nil
	case json.Number:
		return t.String(), true, nil
	case []string:
		return strings.Join(t, ","), true, nil
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			s, ok, err := encodeValue(e)
			if err != nil {
				return "", false, err
			}
			if ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), true, nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false, err
		}
		return string(b), true, nil
	}
}
