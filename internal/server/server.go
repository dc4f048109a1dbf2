// Package server exposes the pending queue and the round list to the
// local operator client. Read/delete only for pending items; the importer
// remains the sole writer of patient state from card data.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/operator-ingest/wardround-cli/internal/model"
	"github.com/operator-ingest/wardround-cli/internal/store"
)

// Server is the local HTTP surface.
type Server struct {
	store       store.Store
	defaultWard string
}

// New creates a Server over the given store.
func New(st store.Store, defaultWard string) *Server {
	return &Server{store: st, defaultWard: defaultWard}
}

// Handler builds the router. CORS is wide open: the operator client is a
// browser extension served from an extension origin.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/wardround/pending", s.handleListPending)
	r.Post("/wardround/pending/{id}", s.handleResolvePending)
	r.Get("/wardround/patients", s.handleListPatients)
	r.Post("/wardround/patients/quick_add", s.handleQuickAddPatient)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := s.store.ListPendingUpdates(r.Context(), r.URL.Query().Get("round_id"))
	if err != nil {
		zap.L().Error("server: list pending failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if pending == nil {
		pending = []model.PendingWardRoundUpdate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

// handleResolvePending deletes the pending item: the operator has either
// applied it by hand or discarded it. Pending items are never promoted to
// applies automatically.
func (s *Server) handleResolvePending(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, eris.New("missing pending update id"))
		return
	}
	if err := s.store.DeletePendingUpdate(r.Context(), id); err != nil {
		if eris.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		zap.L().Error("server: delete pending failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.store.ListPatients(r.Context())
	if err != nil {
		zap.L().Error("server: list patients failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if patients == nil {
		patients = []model.Patient{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"patients": patients})
}

func (s *Server) handleQuickAddPatient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		Scratchpad string `json:"scratchpad"`
		Ward       string `json:"ward"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
		return
	}
	ward := req.Ward
	if ward == "" {
		ward = s.defaultWard
	}
	patient, err := s.store.QuickAddPatient(r.Context(), req.Name, req.Scratchpad, ward)
	if err != nil {
		if eris.Is(err, model.ErrValidation) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		zap.L().Error("server: quick add failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"patient": patient})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("server: encode response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
