package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/spendify/constants"
	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/export"
	"github.com/joseph-ayodele/spendify/internal/extract"
	"github.com/joseph-ayodele/spendify/internal/ingest"
	"github.com/joseph-ayodele/spendify/internal/pipeline"
	"github.com/joseph-ayodele/spendify/internal/receipts"
	"github.com/joseph-ayodele/spendify/internal/repository"
)

type stubProcessor struct {
	err   error
	paths []string
}

func (p *stubProcessor) Process(_ context.Context, path string) (pipeline.Result, error) {
	p.paths = append(p.paths, path)
	if p.err != nil {
		return pipeline.Result{}, p.err
	}
	return pipeline.Result{Assembly: extract.AssembleFields(extract.Fields{
		"merchant":     "ACME MARKET",
		"date":         "12.03.2024",
		"total_amount": "1.234,56",
		"tax":          "3,63",
		"currency":     "EUR",
	})}, nil
}

type testEnv struct {
	handler   http.Handler
	proc      *stubProcessor
	uploadDir string
}

func newTestEnv(t *testing.T, cfg common.ServerConfig) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	repo, err := repository.Open(context.Background(), repository.Config{DSN: filepath.Join(dir, "receipts.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	uploads := filepath.Join(dir, "uploads")
	svc := receipts.NewService(repo, uploads, logger)
	proc := &stubProcessor{}
	h, err := NewRouter(Dependencies{
		Receipts:  svc,
		Exporter:  export.NewService(svc, logger),
		Processor: proc,
		Ingestor:  ingest.NewFSIngestor(uploads, logger),
		DB:        repo,
		UploadDir: uploads,
		Config:    cfg,
		Logger:    logger,
	})
	require.NoError(t, err)
	return &testEnv{handler: h, proc: proc, uploadDir: uploads}
}

func defaultConfig() common.ServerConfig {
	return common.ServerConfig{CORSOrigins: []string{"*"}, MaxUploadMB: 1}
}

func (e *testEnv) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	return e.do(t, method, target, strings.NewReader(body), "application/json")
}

func multipartBody(t *testing.T, field, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	body, ct := multipartBody(t, "file", "receipt.JPG", []byte("fake image"))

	rec := env.do(t, http.MethodPost, "/upload", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[map[string]any](t, rec)
	filename := got["filename"].(string)
	assert.True(t, strings.HasSuffix(filename, ".jpg"))
	assert.Equal(t, "/static/"+filename, got["image_url"])
	assert.Equal(t, map[string]any{
		"merchant":     "ACME MARKET",
		"date":         "12.03.2024",
		"total_amount": "1234.56",
		"tax":          "3.63",
		"tax_rate":     "",
		"currency":     "€",
	}, got["structured_data"])

	_, err := os.Stat(filepath.Join(env.uploadDir, filename))
	assert.NoError(t, err)
	require.Len(t, env.proc.paths, 1)
	assert.Equal(t, filepath.Join(env.uploadDir, filename), env.proc.paths[0])

	// the stored image is served back
	img := env.do(t, http.MethodGet, "/static/"+filename, nil, "")
	assert.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, "fake image", img.Body.String())

	// nothing was saved
	list := env.do(t, http.MethodGet, "/receipts", nil, "")
	assert.JSONEq(t, `[]`, list.Body.String())
}

func TestUpload_Rejections(t *testing.T) {
	env := newTestEnv(t, defaultConfig())

	rec := env.do(t, http.MethodPost, "/upload", strings.NewReader(""), "multipart/form-data; boundary=x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file is required", decode[errorBody](t, rec).Detail)

	body, ct := multipartBody(t, "file", "doc.pdf", []byte("%PDF"))
	rec = env.do(t, http.MethodPost, "/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.proc.paths)
}

func TestUpload_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	env.proc.err = common.UpstreamError("language model request failed", errors.New("connection refused"))

	body, ct := multipartBody(t, "file", "r.png", []byte("img"))
	rec := env.do(t, http.MethodPost, "/upload", body, ct)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "language model request failed", decode[errorBody](t, rec).Detail)

	entries, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed upload is removed")
}

func TestUpload_RateLimited(t *testing.T) {
	cfg := defaultConfig()
	cfg.RateLimitPerSecond = 0.001
	cfg.RateLimitBurst = 1
	env := newTestEnv(t, cfg)

	body, ct := multipartBody(t, "file", "r.png", []byte("img"))
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/upload", body, ct).Code)

	body, ct = multipartBody(t, "file", "r.png", []byte("img"))
	rec := env.do(t, http.MethodPost, "/upload", body, ct)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// other routes are not limited
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/receipts", nil, "").Code)
}

const createBody = `{
	"merchant": "ACME MARKET", "date": "12.03.2024", "total": "1234.56", "tax": "3.63",
	"category": "Grocery", "tax_rate": "", "currency": "€",
	"filename": "a.jpg", "image_url": "/static/a.jpg"
}`

func TestReceiptsCRUD(t *testing.T) {
	env := newTestEnv(t, defaultConfig())

	rec := env.doJSON(t, http.MethodPost, "/receipts", createBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[statusBody](t, rec)
	assert.Equal(t, "created", created.Status)
	require.NotEmpty(t, created.ID)

	rec = env.do(t, http.MethodGet, "/receipts", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0]["id"])
	assert.Equal(t, string(constants.StatusCompleted), list[0]["status"])
	assert.Equal(t, "€", list[0]["currency"])

	rec = env.do(t, http.MethodGet, "/receipts/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	one := decode[map[string]any](t, rec)
	assert.Equal(t, created.ID, one["id"])
	assert.Equal(t, "ACME MARKET", one["merchant"])

	rec = env.doJSON(t, http.MethodPut, "/receipts/"+created.ID, `{"total": "99.90", "merchant": null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"updated"}`, rec.Body.String())

	list = decode[[]map[string]any](t, env.do(t, http.MethodGet, "/receipts", nil, ""))
	assert.Equal(t, "99.90", list[0]["total"])
	assert.Equal(t, "ACME MARKET", list[0]["merchant"])

	rec = env.do(t, http.MethodDelete, "/receipts/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/receipts/"+created.ID, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, env.doJSON(t, http.MethodPut, "/receipts/missing", `{"total":"1"}`).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/receipts/"+created.ID, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/receipts/missing", nil, "").Code)
}

func TestReceipts_BadBodies(t *testing.T) {
	env := newTestEnv(t, defaultConfig())

	tests := []struct {
		name, method, target, body string
	}{
		{"not json", http.MethodPost, "/receipts", `{`},
		{"missing fields", http.MethodPost, "/receipts", `{"merchant":"X"}`},
		{"wrong type", http.MethodPost, "/receipts", strings.Replace(createBody, `"1234.56"`, `1234.56`, 1)},
		{"bad currency", http.MethodPost, "/receipts", strings.Replace(createBody, `"€"`, `"EUR"`, 1)},
		{"empty patch", http.MethodPut, "/receipts/x", `{}`},
		{"patch wrong type", http.MethodPut, "/receipts/x", `{"total": 5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON(t, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[errorBody](t, rec).Detail)
		})
	}
}

func TestSummaryAndExport(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodPost, "/receipts", createBody).Code)

	rec := env.do(t, http.MethodGet, "/receipts/summary?currency=%E2%82%AC&from=01.03.2024&to=2024-03-31", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sum := decode[receipts.Summary](t, rec)
	assert.Equal(t, 1, sum.Count)
	assert.Equal(t, "1234.56", sum.Total)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/receipts/summary?from=soon", nil, "").Code)

	rec = env.do(t, http.MethodGet, "/receipts/export.xlsx", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "receipts.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestHealthMetricsAndMiddleware(t *testing.T) {
	env := newTestEnv(t, defaultConfig())

	rec := env.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	rec = env.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "spendify_http_requests_total")

	req = httptest.NewRequest(http.MethodOptions, "/receipts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/static/", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/nope", nil, "").Code)
}

func TestRecoverer(t *testing.T) {
	h := recoverer(slog.New(slog.NewTextHandler(io.Discard, nil)), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"internal error"}`, rec.Body.String())
}
