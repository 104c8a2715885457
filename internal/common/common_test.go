package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("LLM_URL", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := LoadConfig()

	assert.Equal(t, "receipts.db", cfg.Database.DSN)
	assert.False(t, cfg.Database.IsPostgres())
	assert.Equal(t, ":8000", cfg.Server.HTTPAddr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 256, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-6)
	assert.InDelta(t, 0.9, cfg.LLM.TopP, 1e-6)
	assert.True(t, cfg.LLM.MockLLM())
	assert.Equal(t, "MOCK RECEIPT TEXT", cfg.OCR.FallbackText)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_URL", "postgresql://u:p@localhost/spendify")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("LLM_URL", "http://127.0.0.1:8080")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("OCR_TSV_CONFIDENCE", "true")
	t.Setenv("MAX_UPLOAD_MB", "not-a-number")

	cfg := LoadConfig()

	assert.True(t, cfg.Database.IsPostgres())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.LLM.MockLLM())
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.OCR.EnableTSVConfidence)
	assert.Equal(t, 20, cfg.Server.MaxUploadMB)
}

func TestConfigValidate(t *testing.T) {
	cfg := LoadConfig()
	cfg.Storage.UploadDir = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NotFoundError("receipt not found"), http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", ErrValidation), http.StatusBadRequest},
		{InvalidInputErrorf("bad %s", "id"), http.StatusBadRequest},
		{UpstreamError("llm failed", errors.New("dial tcp")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "%v", tt.err)
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "receipt not found", PublicMessage(NotFoundError("receipt not found")))
	assert.Equal(t, "internal error", PublicMessage(errors.New("pq: connection reset")))
	assert.Equal(t, "x: unsupported file type", PublicMessage(fmt.Errorf("x: %w", ErrUnsupported)))
}

func TestValidator(t *testing.T) {
	name := "  "
	v := NewValidator().
		Field("merchant", &name, Required).
		Field("currency", "EUR", CurrencySymbol).
		Field("category", "Grocery", MaxLength(3)).
		Field("id", "not-a-uuid", UUID)

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 4)
	assert.Contains(t, v.ErrorMessage(), "merchant is required")
	assert.ErrorIs(t, v.Error(), ErrValidation)

	err := ValidateAndReturnError(v)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestValidator_AcceptsCanonicalCurrency(t *testing.T) {
	v := NewValidator().Field("currency", "₺", CurrencySymbol).Field("currency", "", CurrencySymbol)
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
	assert.Equal(t, context.Background(), WithRequestID(context.Background(), ""))
}

func TestLogWith(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogWith(WithRequestID(context.Background(), "req-9"), logger).Info("x")
	assert.Contains(t, buf.String(), "req_id=req-9")

	buf.Reset()
	LogWith(context.Background(), logger).Info("y")
	assert.NotContains(t, buf.String(), "req_id")
}
