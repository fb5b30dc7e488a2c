package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/varlaud/dexa-extract/config"
)

func TestRequestSizeMiddlewareRejectsDeclaredOversize(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 1024}
	handler := requestSizeMiddleware(cfg)(okHandler())

	req := httptest.NewRequest("POST", "/extract", bytes.NewBufferString("small"))
	req.Header.Set("Content-Length", "2048")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 for declared oversize body, got %d", w.Code)
	}
}

func TestRequestSizeMiddlewareAllowsSmallBody(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 1024}
	handler := requestSizeMiddleware(cfg)(okHandler())

	req := httptest.NewRequest("POST", "/extract", bytes.NewBufferString("small"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for small body, got %d", w.Code)
	}
}

func TestRequestSizeMiddlewareCapsUndeclaredStream(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 8}
	var readErr error
	handler := requestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		_, readErr = r.Body.Read(buf)
	}))

	req := httptest.NewRequest("POST", "/extract", strings.NewReader(strings.Repeat("x", 64)))
	req.ContentLength = -1 // chunked upload, no declared length
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if readErr == nil {
		t.Error("expected MaxBytesReader to stop an oversized stream")
	}
}
