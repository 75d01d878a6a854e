package httputil

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "registrar/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})

	t.Run("status mapping", func(t *testing.T) {
		cases := map[dErrors.Code]int{
			dErrors.CodeValidation:         http.StatusBadRequest,
			dErrors.CodeInvalidInput:       http.StatusBadRequest,
			dErrors.CodeNotFound:           http.StatusNotFound,
			dErrors.CodeConflict:           http.StatusConflict,
			dErrors.CodeUnavailable:        http.StatusServiceUnavailable,
			dErrors.CodeInvariantViolation: http.StatusInternalServerError,
		}
		for code, wantStatus := range cases {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(code, "detail"))
			if w.Code != wantStatus {
				t.Errorf("code %s: status = %d, want %d", code, w.Code, wantStatus)
			}
		}
	})

	t.Run("uncoded error masks as internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, io.ErrUnexpectedEOF)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", w.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatal("expected error_description to be omitted for uncoded errors")
		}
	})
}

type previewBody struct {
	Volume string `json:"volume"`
	Serial string `json:"serial"`

	normalized bool
}

func (b *previewBody) Normalize() {
	b.Volume = strings.TrimSpace(b.Volume)
	b.Serial = strings.TrimSpace(b.Serial)
	b.normalized = true
}

func (b *previewBody) Validate() error {
	if b.Volume == "" {
		return dErrors.New(dErrors.CodeValidation, "volume is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("decodes normalizes and validates", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/certificates/preview", strings.NewReader(`{"volume":" 1 ","serial":"16"}`))

		req, ok := DecodeAndPrepare[previewBody](w, r, logger, context.Background(), "req-1")
		if !ok {
			t.Fatalf("expected ok, response: %s", w.Body.String())
		}
		if !req.normalized {
			t.Fatal("Normalize was not called")
		}
		if req.Volume != "1" {
			t.Fatalf("volume not normalized: %q", req.Volume)
		}
	})

	t.Run("malformed body yields bad_request", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/certificates/preview", strings.NewReader(`{"volume":`))

		_, ok := DecodeAndPrepare[previewBody](w, r, logger, context.Background(), "req-2")
		if ok {
			t.Fatal("expected failure on malformed JSON")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("validation failure writes the model error", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/certificates/preview", strings.NewReader(`{"serial":"16"}`))

		_, ok := DecodeAndPrepare[previewBody](w, r, logger, context.Background(), "req-3")
		if ok {
			t.Fatal("expected validation failure")
		}
		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "validation_error" {
			t.Fatalf("expected validation_error, got %q", body["error"])
		}
		if body["error_description"] != "volume is required" {
			t.Fatalf("unexpected description %q", body["error_description"])
		}
	})
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"number": "WBMSDBRWI12122"})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["number"] != "WBMSDBRWI12122" {
		t.Fatalf("unexpected body: %v", body)
	}
}
