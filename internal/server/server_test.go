package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"moulding-cropper/internal/detect"
	"moulding-cropper/internal/extract"
	"moulding-cropper/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	extractor := extract.NewEngine(dir, nil, logger.Nop())
	return New(nil, extractor, logger.Nop()), dir
}

// multipartBody builds a multipart request body with an image part and any
// extra form fields.
func multipartBody(t *testing.T, filename string, payload []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(payload)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		want     detect.Mode
	}{
		{"explicit secondary", "secondary", "photo.jpg", detect.ModeScreenshot},
		{"explicit screenshot", "screenshot", "photo.jpg", detect.ModeScreenshot},
		{"explicit primary", "primary", "Screenshot 2024.png", detect.ModeCatalog},
		{"explicit catalog", "catalog", "Screenshot 2024.png", detect.ModeCatalog},
		{"case insensitive field", "SCREENSHOT", "photo.jpg", detect.ModeScreenshot},
		{"filename hint", "", "Screenshot 2024-05-01.png", detect.ModeScreenshot},
		{"filename hint case", "", "SCREENSHOT.PNG", detect.ModeScreenshot},
		{"default", "", "catalog-page-12.jpg", detect.ModeCatalog},
		{"unknown field falls through", "magic", "photo.jpg", detect.ModeCatalog},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resolveMode(tc.field, tc.filename))
		})
	}
}

func TestDetectRejectsNonMultipart(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/detect", strings.NewReader("not a form"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectRejectsMissingImage(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartBody(t, "", nil, map[string]string{"strategy": "primary"})
	req := httptest.NewRequest(http.MethodPost, "/api/detect", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing image")
}

func TestDetectRejectsUndecodableImage(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartBody(t, "photo.jpg", []byte("not an image"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/detect", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unreadable image")
}

func TestExtractRejectsMalformedBoxes(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartBody(t, "photo.jpg", []byte("payload"),
		map[string]string{"boxes": "{not json"})
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed boxes")
}

func TestExtractRejectsMissingImage(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartBody(t, "", nil,
		map[string]string{"boxes": "[]"})
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCropsServedReadOnly(t *testing.T) {
	srv, dir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "50718.png"), []byte("png bytes"), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/crops/50718.png", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png bytes", rec.Body.String())

	// Writes to the crops tree are not routed.
	req = httptest.NewRequest(http.MethodPost, "/crops/50718.png", nil)
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusOK, rec.Code)
}
