// Package testutil carries the HTTP plumbing shared by handler and
// in-process wiring tests: request builders, response decoding and the
// Given/When/Then subtest labels.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewJSONRequest builds a request with body marshaled as JSON.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err, "marshal request body")
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewRequest builds a bodyless request.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// DoRequest runs the request through the handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// ReadBody drains the recorded response body.
func ReadBody(t *testing.T, rec *httptest.ResponseRecorder) []byte {
	t.Helper()
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err, "read response body")
	return body
}

// UnmarshalResponse decodes the recorded JSON body into T.
func UnmarshalResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) *T {
	t.Helper()
	var result T
	require.NoError(t, json.Unmarshal(ReadBody(t, rec), &result), "unmarshal response")
	return &result
}

// UnmarshalErrorResponse decodes the flat error body WriteError produces.
func UnmarshalErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	require.NoError(t, json.Unmarshal(ReadBody(t, rec), &result), "unmarshal error response")
	return result
}

// AssertStatus checks the recorded status code.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rec.Code, "unexpected status code")
}

// AssertErrorCode checks the error code WriteError put in the body.
func AssertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, expected string) {
	t.Helper()
	errResp := UnmarshalErrorResponse(t, rec)
	assert.Equal(t, expected, errResp["error"], "unexpected error code")
}

// AssertStatusAndError checks status code and body error code together.
func AssertStatusAndError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	AssertStatus(t, rec, status)
	AssertErrorCode(t, rec, code)
}

// AssertJSONContains checks a single key of the recorded JSON body.
func AssertJSONContains(t *testing.T, rec *httptest.ResponseRecorder, key string, expected any) {
	t.Helper()
	var result map[string]any
	require.NoError(t, json.Unmarshal(ReadBody(t, rec), &result), "unmarshal response")
	assert.Equal(t, expected, result[key], "unexpected value for key %q", key)
}
