package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rmontanez/chequeo/internal/store"
	"github.com/rmontanez/chequeo/internal/verify"
)

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verify.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "cuerpo JSON inválido"})
		return
	}

	out := s.pipeline.Verify(r.Context(), req)
	switch out.Status {
	case verify.StatusInvalid:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Contenido no proporcionado"})
	case verify.StatusFatal:
		s.log.Error("verify unavailable", zap.Error(out.Err))
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Servicio no disponible"})
	default:
		// Resolved and degraded both answer 200 with a full body.
		writeJSON(w, http.StatusOK, out.Response)
	}
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  *int64 `json:"userId,omitempty"`
}

type chatResponse struct {
	Answer    string `json:"answer"`
	Category  string `json:"category"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Asistente no disponible"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "cuerpo JSON inválido"})
		return
	}

	ans, err := s.assistant.Reply(r.Context(), req.Message)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Se requiere un mensaje"})
		return
	}

	s.log.Info("chat query answered",
		zap.String("source", ans.Source),
		zap.String("category", ans.Category))

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:    ans.Text,
		Category:  ans.Category,
		Source:    ans.Source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type historyResponse struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Results    any `json:"results"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Historial no disponible"})
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Se requiere userId"})
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	entries, total, err := s.audit.HistoryForUser(r.Context(), userID, limit, (page-1)*limit)
	if err != nil {
		s.log.Error("history lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Error al consultar el historial"})
		return
	}

	totalPages := (total + limit - 1) / limit
	if entries == nil {
		entries = []store.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		Results:    entries,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
