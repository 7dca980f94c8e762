package hex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Response is a fully read API response
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ErrorPayload is the body the API sends with non-2xx responses
type ErrorPayload struct {
	Reason  string `json:"reason"`
	TraceID string `json:"traceId"`
}

// APIError is returned for non-2xx responses. Payload holds the decoded
// JSON error body exactly as the server sent it, or nil when the body is not
// JSON. Body always holds the raw bytes.
type APIError struct {
	StatusCode int
	Status     string
	Body       []byte
	Payload    any
	ErrorPayload
}

func (e *APIError) Error() string {
	msg := "hex api error: " + e.Status
	switch {
	case e.Reason != "":
		msg += ": " + e.Reason
	case e.Payload == nil && len(e.Body) > 0:
		msg += ": " + truncate(string(bytes.TrimSpace(e.Body)), 200)
	}
	if e.TraceID != "" {
		msg += " (trace id " + e.TraceID + ")"
	}
	return msg
}

func newAPIError(resp *Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       resp.Body,
	}
	if apiErr.Status == "" {
		apiErr.Status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var payload any
	if err := json.Unmarshal(resp.Body, &payload); err == nil {
		apiErr.Payload = payload
		_ = json.Unmarshal(resp.Body, &apiErr.ErrorPayload)
	}
	return apiErr
}

// Unpack returns the decoded JSON body of a successful response. A
// successful body that is not valid JSON is returned as raw []byte. Non-2xx
// responses return an *APIError.
func Unpack(resp *Response) (any, error) {
	if !resp.OK() {
		return nil, newAPIError(resp)
	}

	var contents any
	if err := json.Unmarshal(resp.Body, &contents); err != nil {
		return resp.Body, nil
	}
	return contents, nil
}

// UnpackInto decodes a successful response into v. A body that is not valid
// JSON, or that is missing required fields, yields ErrMalformedResponse.
func UnpackInto(resp *Response, v any) error {
	if !resp.OK() {
		return newAPIError(resp)
	}
	if !json.Valid(resp.Body) {
		return fmt.Errorf("%w: body is not valid JSON: %q", ErrMalformedResponse, truncate(string(resp.Body), 200))
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
