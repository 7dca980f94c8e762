package hex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"
)

// HTTPMethod is one of the request methods the API accepts
type HTTPMethod string

const (
	MethodGet    HTTPMethod = http.MethodGet
	MethodPost   HTTPMethod = http.MethodPost
	MethodPut    HTTPMethod = http.MethodPut
	MethodDelete HTTPMethod = http.MethodDelete
	MethodPatch  HTTPMethod = http.MethodPatch
)

func (m HTTPMethod) valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch:
		return true
	}
	return false
}

// Execute sends one authenticated request to path, relative to the API root.
// Nil-valued params and body fields are dropped before sending, at any
// nesting depth. A nil body sends no request body at all.
func (c *Client) Execute(ctx context.Context, path string, method HTTPMethod, params, body map[string]any) (*Response, error) {
	if !method.valid() {
		return nil, fmt.Errorf("%w: unsupported HTTP method %q", ErrInvalidArgument, method)
	}

	query, err := StripNulls(params)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query parameters: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := StripNulls(body)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize request body: %w", err)
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	session := c.creds.Open()
	defer session.Close()

	endpoint := session.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + encodeQuery(query).Encode()
	}

	req, err := http.NewRequestWithContext(ctx, string(method), endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.logger().WithFields(map[string]interface{}{
		"method": string(method),
		"path":   path,
	})

	start := time.Now()
	resp, err := session.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(string(method), 0, time.Since(start))
		log.WithError(err).Debug("Hex API request failed")
		return nil, &TransportError{Method: string(method), Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	c.metrics.ObserveRequest(string(method), resp.StatusCode, duration)
	if err != nil {
		log.WithError(err).Debug("Failed to read Hex API response")
		return nil, &TransportError{Method: string(method), Path: path, Err: err}
	}

	log.WithField("status", resp.StatusCode).WithDuration(duration).Debug("Hex API request completed")

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Serialize converts v into plain JSON values: map[string]any, []any,
// strings, booleans, numbers and nil. Structs, typed maps and slices, and
// json.Marshaler implementations are converted through their JSON encoding.
func Serialize(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			s, err := Serialize(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = s
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			s, err := Serialize(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = s
		}
		return out, nil
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// StripNulls serializes values and then removes every nil-valued entry,
// descending into nested objects, including objects held in arrays. Nil
// array elements are kept so positions do not shift. A nil map stays nil.
func StripNulls(values map[string]any) (map[string]any, error) {
	if values == nil {
		return nil, nil
	}
	serialized, err := Serialize(values)
	if err != nil {
		return nil, err
	}
	return stripMap(serialized.(map[string]any)), nil
}

func stripMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		v = stripValue(v)
		if v != nil {
			out[k] = v
		}
	}
	return out
}

func stripValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return stripMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = stripValue(item)
		}
		return out
	default:
		return v
	}
}

// encodeQuery renders serialized params as query values. Arrays become
// repeated keys, objects are sent as JSON.
func encodeQuery(params map[string]any) url.Values {
	values := url.Values{}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch val := params[k].(type) {
		case []any:
			for _, item := range val {
				if item != nil {
					values.Add(k, formatQueryValue(item))
				}
			}
		default:
			values.Set(k, formatQueryValue(val))
		}
	}
	return values
}

func formatQueryValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}
