package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/spendify/constants"
	"github.com/joseph-ayodele/spendify/internal/common"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	dir := t.TempDir()
	return &common.Config{
		Database: common.DatabaseConfig{DSN: filepath.Join(dir, "receipts.db"), DialTimeout: time.Second},
		Storage:  common.StorageConfig{UploadDir: filepath.Join(dir, "uploads")},
		OCR: common.OCRConfig{
			TesseractBin: filepath.Join(dir, "no-such-tesseract"),
			FallbackText: "MOCK RECEIPT TEXT",
			Timeout:      5 * time.Second,
		},
		LLM: common.LLMConfig{MaxTokens: 256},
	}
}

func TestNewCompleter_MockModeIsNilInterface(t *testing.T) {
	c := NewCompleter(common.LLMConfig{URL: "  "}, nil)
	assert.Nil(t, c)

	c = NewCompleter(common.LLMConfig{URL: "http://127.0.0.1:8080"}, nil)
	assert.NotNil(t, c)
}

func TestOCRConfig(t *testing.T) {
	got := OCRConfig(common.OCRConfig{TesseractBin: "tess", TesseractLang: "tur", PSM: 6, EnableTSVConfidence: true})
	assert.Equal(t, "tess", got.Tesseract)
	assert.Equal(t, "tur", got.TesseractLang)
	assert.Equal(t, 6, got.PSM)
	assert.True(t, got.EnableTSVConfidence)
}

func TestNewProcessor_FallsBackWithoutEngines(t *testing.T) {
	cfg := testConfig(t)
	img := filepath.Join(t.TempDir(), "r.jpg")
	require.NoError(t, os.WriteFile(img, []byte("not really a jpeg"), 0o644))

	res, err := NewProcessor(cfg, nil).Process(context.Background(), img)
	require.NoError(t, err)
	assert.True(t, res.OCRFallback)
	assert.Equal(t, "MOCK RECEIPT TEXT", res.OCRText)
	assert.True(t, res.Mocked)
	assert.Equal(t, "MOCK MARKET", res.Receipt().Merchant)
	assert.Equal(t, "150.00", res.Receipt().TotalAmount)
	assert.Equal(t, constants.TurkishLira, res.Receipt().Currency)
}

func TestOpen_ImportsIntoStore(t *testing.T) {
	cfg := testConfig(t)
	app, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	info, err := os.Stat(cfg.Storage.UploadDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	src := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(src, []byte("png bytes"), 0o644))

	res, id, err := app.Importer.ImportFile(context.Background(), src)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.FileExists(t, res.StoredPath)

	rec, err := app.Receipts.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "MOCK MARKET", rec.Merchant)
	assert.Equal(t, "/static/"+res.Filename, rec.ImageURL)
}
