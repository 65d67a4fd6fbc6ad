// Package server exposes the verification engine over HTTP. The
// verify endpoint follows a strict "never a blank error screen"
// policy: only malformed requests and total storage unavailability are
// visible as non-200 responses.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/rmontanez/chequeo/internal/assistant"
	"github.com/rmontanez/chequeo/internal/config"
	"github.com/rmontanez/chequeo/internal/store"
	"github.com/rmontanez/chequeo/internal/verify"
)

// Server is the HTTP API over the pipeline and the assistant.
type Server struct {
	pipeline  *verify.Pipeline
	assistant *assistant.Assistant
	audit     store.AuditStore
	pinger    store.Pinger
	log       *zap.Logger
	http      *http.Server
}

// New assembles the server. assistant, audit and pinger may be nil;
// the corresponding endpoints then report unavailability.
func New(cfg config.ServerConfig, pipeline *verify.Pipeline, asst *assistant.Assistant,
	audit store.AuditStore, pinger store.Pinger, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		pipeline:  pipeline,
		assistant: asst,
		audit:     audit,
		pinger:    pinger,
		log:       log,
	}
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler builds the route table wrapped in the request-log middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/verify", s.handleVerify)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.withRequestLog(mux)
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info("listening", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error string `json:"error"`
}
