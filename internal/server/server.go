package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"TechPulse/internal/collector"
	"TechPulse/internal/model"
	"TechPulse/internal/recorder"
	"TechPulse/internal/scheduler"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Answerer answers a question about an uploaded PDF report.
type Answerer interface {
	Answer(ctx context.Context, source string, pdf []byte, query string) (*model.Answer, error)
}

// HealthReporter exposes the latest upstream probe.
type HealthReporter interface {
	Health() scheduler.ProbeStatus
}

// Options configures a Server.
type Options struct {
	MaxUploadBytes int64
	AllowedOrigin  string
}

// Server serves the dashboard page and the JSON API.
type Server struct {
	Collector *collector.Collector
	Reports   Answerer
	Recorder  recorder.Recorder
	Health    HealthReporter
	Options   Options
}

// New creates a Server. Reports and Health may be nil.
func New(col *collector.Collector, reports Answerer, rec recorder.Recorder, health HealthReporter, opts Options) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	return &Server{Collector: col, Reports: reports, Recorder: rec, Health: health, Options: opts}
}

// Handler builds the routed handler with logging and CORS.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/report", s.handleReportPage).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/tickers", s.handleTickers).Methods(http.MethodGet)
	api.HandleFunc("/quotes/{ticker}", s.handleQuote).Methods(http.MethodGet)
	api.HandleFunc("/quotes/{ticker}/peers", s.handlePeers).Methods(http.MethodGet)
	api.HandleFunc("/reports", s.handleReportAPI).Methods(http.MethodPost)
	api.HandleFunc("/scans", s.handleScans).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{s.Options.AllowedOrigin},
		AllowedHeaders: []string{"Content-Type"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	})
	return c.Handler(router)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] dashboard listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Println("[INFO] dashboard shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[INFO] %s %s %d %v", r.Method, r.RequestURI, rec.status, time.Since(start).Round(time.Millisecond))
	})
}

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrUnknownTicker):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDivisionByZero):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrDocumentParseFailure):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNetworkFailure), errors.Is(err, model.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
