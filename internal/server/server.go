package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/entity"
	"github.com/joseph-ayodele/spendify/internal/export"
	"github.com/joseph-ayodele/spendify/internal/ingest"
	"github.com/joseph-ayodele/spendify/internal/receipts"
)

// ReceiptService is what the receipt routes need from the receipts package.
type ReceiptService interface {
	Create(ctx context.Context, req receipts.CreateRequest) (string, error)
	List(ctx context.Context) ([]entity.Receipt, error)
	Get(ctx context.Context, id string) (entity.Receipt, error)
	Update(ctx context.Context, id string, patch entity.ReceiptPatch) error
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context, filter receipts.SummaryFilter) (receipts.Summary, error)
}

// Exporter renders the spreadsheet download.
type Exporter interface {
	ExportXLSX(ctx context.Context, filter export.Filter) ([]byte, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies wires the HTTP API.
type Dependencies struct {
	Receipts  ReceiptService
	Exporter  Exporter
	Processor ingest.Processor
	Ingestor  ingest.Ingestor
	DB        Pinger
	UploadDir string
	Config    common.ServerConfig
	Logger    *slog.Logger
}

// API holds the handlers for the HTTP routes.
type API struct {
	deps         Dependencies
	logger       *slog.Logger
	createSchema *jsonschema.Schema
	updateSchema *jsonschema.Schema
}

// NewRouter builds the HTTP handler with every route and middleware applied.
func NewRouter(deps Dependencies) (http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	createSchema, updateSchema, err := compileRequestSchemas()
	if err != nil {
		return nil, err
	}
	api := &API{deps: deps, logger: deps.Logger, createSchema: createSchema, updateSchema: updateSchema}

	mux := http.NewServeMux()

	var upload http.Handler = http.HandlerFunc(api.handleUpload)
	if deps.Config.RateLimitPerSecond > 0 && deps.Config.RateLimitBurst > 0 {
		limiter := rate.NewLimiter(rate.Limit(deps.Config.RateLimitPerSecond), deps.Config.RateLimitBurst)
		upload = rateLimit(limiter, upload)
	}
	mux.Handle("POST /upload", upload)

	mux.HandleFunc("GET /receipts", api.handleListReceipts)
	mux.HandleFunc("POST /receipts", api.handleCreateReceipt)
	mux.HandleFunc("GET /receipts/summary", api.handleSummary)
	mux.HandleFunc("GET /receipts/export.xlsx", api.handleExport)
	mux.HandleFunc("GET /receipts/{id}", api.handleGetReceipt)
	mux.HandleFunc("PUT /receipts/{id}", api.handleUpdateReceipt)
	mux.HandleFunc("DELETE /receipts/{id}", api.handleDeleteReceipt)

	mux.Handle("GET /static/", staticFiles(deps.UploadDir))
	mux.HandleFunc("GET /healthz", api.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	origins := deps.Config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         7200,
	})

	var h http.Handler = mux
	h = observe(deps.Logger, h)
	h = requestID(h)
	h = recoverer(deps.Logger, h)
	h = corsHandler.Handler(h)

	deps.Logger.Info("server.routes.ok", "upload_rate_per_second", deps.Config.RateLimitPerSecond)
	return h, nil
}

// NewHTTPServer wraps handler with the timeouts used in production.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// uploads wait on OCR and the model
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
}

// staticFiles serves stored receipt images without directory listings.
func staticFiles(dir string) http.Handler {
	fs := http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/static/" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
