package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/moonventures/cardpurchases/internal/amount"
	"github.com/moonventures/cardpurchases/internal/config"
	"github.com/moonventures/cardpurchases/internal/handler"
	"github.com/moonventures/cardpurchases/internal/metrics"
	"github.com/moonventures/cardpurchases/internal/recorder"
	"github.com/moonventures/cardpurchases/internal/services"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// purchaseStore is the remote sink, readable for limits and reports.
type purchaseStore interface {
	recorder.PurchaseStore
	handler.PurchaseReader
}

// receiptStore uploads receipts and reads them back for confirmations.
type receiptStore interface {
	recorder.ReceiptUploader
	handler.ReceiptDownloader
}

func newPurchaseStore(ctx context.Context) (purchaseStore, error) {
	switch kind := os.Getenv("PURCHASE_STORE"); kind {
	case "sheets":
		return services.NewSheetsService(ctx)
	case "", "table":
		return services.NewDatabaseService()
	default:
		return nil, errors.New("unknown PURCHASE_STORE " + kind)
	}
}

func newReceiptStore(ctx context.Context) (receiptStore, error) {
	switch kind := os.Getenv("RECEIPT_STORE"); kind {
	case "gcs":
		return services.NewGCSService(ctx)
	case "", "blob":
		return services.NewBlobService()
	default:
		return nil, errors.New("unknown RECEIPT_STORE " + kind)
	}
}

func main() {
	ctx := context.Background()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		os.Exit(1)
	}

	// Initialize Services
	store, err := newPurchaseStore(ctx)
	if err != nil {
		slog.Error("Failed to init purchase store", "error", err)
		os.Exit(1)
	}

	receipts, err := newReceiptStore(ctx)
	if err != nil {
		slog.Error("Failed to init receipt store", "error", err)
		os.Exit(1)
	}
	if c, ok := receipts.(io.Closer); ok {
		defer c.Close()
	}

	workbook := services.NewWorkbookService("")
	slog.Info("Local workbook", "path", workbook.Path())

	deps := recorder.Dependencies{
		Remote:   store,
		Local:    workbook,
		Receipts: receipts,
	}

	// Confirmations are optional: without a queue the purchase is still recorded.
	if queueService, err := services.NewQueueService(); err != nil {
		slog.Warn("Failed to init QueueService (continuing without confirmations)", "error", err)
	} else {
		deps.Notifier = queueService
	}

	rateTTL := amount.DefaultRateTTL
	if v := os.Getenv("RATE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			rateTTL = d
		} else {
			slog.Warn("Invalid RATE_TTL, using default", "value", v, "error", err)
		}
	}
	converter := amount.NewConverter(services.NewQuoteService(), rateTTL)
	deps.Converter = converter

	h := &handler.Dependencies{
		Config:    cfg,
		Recorder:  recorder.New(cfg, deps),
		Purchases: store,
		Receipts:  receipts,
		Rates:     converter,
	}

	if emailService, err := services.NewEmailService(nil); err != nil {
		slog.Warn("Failed to init EmailService (continuing anyway)", "error", err)
	} else {
		h.Email = emailService
	}

	// Router
	mux := http.NewServeMux()

	// API Routes
	mux.HandleFunc("POST /api/purchases", h.HandleCreatePurchase)
	mux.HandleFunc("GET /api/purchases", h.HandleListPurchases)
	mux.HandleFunc("GET /api/cardholders", h.HandleCardholders)
	mux.HandleFunc("GET /api/cardholders/{id}/limit", h.HandleCardholderLimit)
	mux.HandleFunc("GET /api/installments/preview", h.HandleInstallmentPreview)
	mux.HandleFunc("GET /api/rates/{currency}", h.HandleRate)

	// Adapter for HTTP Trigger (since enableForwardingHttpRequest is false)
	mux.HandleFunc("/HttpTrigger", h.HandleHttpTrigger(mux))

	mux.HandleFunc("/ProcessQueue", h.ProcessQueue)
	mux.HandleFunc("/NightlyTrigger", h.HandleNightlyTrigger)

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Catch-all handler for unmatched requests to debug what the Host is sending
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		slog.Warn("UNMATCHED REQUEST",
			"method", r.Method,
			"path", r.URL.Path,
			"content_length", r.ContentLength,
		)
		http.NotFound(w, r)
	})

	port := os.Getenv("FUNCTIONS_CUSTOMHANDLER_PORT")
	if port == "" {
		port = "8080"
	}

	server := loggingMiddleware(newCORS().Handler(mux))

	slog.Info("Starting server", "port", port, "cardholders", len(cfg.Cardholders))
	if err := http.ListenAndServe(":"+port, server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// newCORS allows the form front end to call the API. CORS_ALLOWED_ORIGINS is
// a comma separated list; unset allows any origin.
func newCORS() *cors.Cors {
	origins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if origins == "" {
		return cors.Default()
	}
	return cors.New(cors.Options{
		AllowedOrigins: strings.Split(origins, ","),
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs every request with its status and duration. Bodies
// are not logged since purchase forms carry receipt files.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"content_length", r.ContentLength,
			"duration", time.Since(start),
		)
	})
}
