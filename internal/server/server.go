package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"time"
)

// Server serves the PDF upload API. Its dependencies are fixed at
// construction and shared by every request.
type Server struct {
	httpServer *http.Server

	store   FileStore
	storage Storage
	maxBody int64

	log     *Logger
	metrics *Metrics
	started time.Time
}

// New wires the routes and middleware. A nil logger logs to stdout at info
// level.
func New(cfg Config, store FileStore, storage Storage, logger *Logger) *Server {
	if logger == nil {
		logger = NewLogger(os.Stdout, LogConfig{})
	}

	s := &Server{
		store:   store,
		storage: storage,
		maxBody: cfg.MaxContentLength,
		log:     logger,
		metrics: NewMetrics(),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", s.pingHandler)
	mux.HandleFunc("GET /db_test", s.dbTestHandler)
	mux.HandleFunc("POST /upload", s.uploadHandler)
	mux.HandleFunc("GET /list", s.listHandler)
	mux.HandleFunc("GET /files/{filename}", s.serveFileHandler)
	mux.HandleFunc("GET /metrics", s.prometheusHandler())

	// Wrap middleware: requestID -> logging -> security headers -> mux
	var handler http.Handler = mux
	handler = securityHeadersMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Metrics exposes the server's counters.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResp struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResp{Error: msg})
}
