package web

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/zstd"

	"BenchBoard/internal/collector"
	"BenchBoard/internal/config"
	"BenchBoard/internal/recorder"
)

// Server serves the dashboard page and the JSON/Markdown API.
type Server struct {
	Config    *config.Config
	Collector *collector.Collector
	Recorder  recorder.Recorder
	now       func() time.Time
	server    *http.Server
}

// NewServer creates a new Server.
func NewServer(cfg *config.Config, col *collector.Collector, rec recorder.Recorder) *Server {
	return &Server{Config: cfg, Collector: col, Recorder: rec, now: time.Now}
}

type route struct {
	Path    string
	Method  string
	Handler http.HandlerFunc
}

func (s *Server) routes() []route {
	return []route{
		{Path: "/", Method: http.MethodGet, Handler: s.handlePage},
		{Path: "/health", Method: http.MethodGet, Handler: s.handleHealth},
		{Path: "/api/v1/performance", Method: http.MethodGet, Handler: s.handlePerformance},
		{Path: "/api/v1/prices", Method: http.MethodGet, Handler: s.handlePrices},
		{Path: "/api/v1/runs", Method: http.MethodGet, Handler: s.handleRuns},
	}
}

// Handler builds the routed handler, with zstd compression when enabled.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	for _, rt := range s.routes() {
		r.HandleFunc(rt.Path, rt.Handler).Methods(rt.Method)
	}
	if s.Config.Server.Compress {
		return ZstdMiddleware(r)
	}
	return r
}

// Start listens on the configured address. It blocks until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.Config.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("[INFO] http server listening on %s", s.Config.Server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

type zstdResponseWriter struct {
	http.ResponseWriter
	encoder *zstd.Encoder
}

func (w *zstdResponseWriter) Write(b []byte) (int, error) {
	return w.encoder.Write(b)
}

// ZstdMiddleware compresses responses for clients that accept zstd.
func ZstdMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Encoding")
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "zstd") {
			next.ServeHTTP(w, r)
			return
		}

		encoder, err := zstd.NewWriter(w)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer encoder.Close()

		w.Header().Set("Content-Encoding", "zstd")
		w.Header().Del("Content-Length")
		next.ServeHTTP(&zstdResponseWriter{ResponseWriter: w, encoder: encoder}, r)
	})
}
