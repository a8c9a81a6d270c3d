package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/pinggolf/reorder-engine/internal/calendar"
	"github.com/pinggolf/reorder-engine/internal/config"
	"github.com/pinggolf/reorder-engine/internal/engine"
)

// Server is the thin read-only HTTP facade in front of the engine facade
// (SPEC_FULL.md §4.10). It holds no per-request or per-user state — every
// route resolves against the one Collections snapshot the engine was built
// from at startup.
type Server struct {
	config *config.Config
	engine *engine.Engine
	router *mux.Router
}

// NewServer builds a Server around an already-loaded engine.
func NewServer(cfg *config.Config, eng *engine.Engine) *Server {
	s := &Server{
		config: cfg,
		engine: eng,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Router returns the configured HTTP router with CORS and request logging
// applied.
func (s *Server) Router() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{s.config.CORSAllowedOrigins},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: s.config.CORSAllowCredentials,
		MaxAge:           300,
	})
	return c.Handler(s.router)
}

// setupRoutes configures every route the facade exposes.
func (s *Server) setupRoutes() {
	s.router.Use(loggingMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/skus/{sku}/propose", s.handleProposeSKU).Methods("POST")
	v1.HandleFunc("/batch/propose", s.handleBatchPropose).Methods("POST")
	v1.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// proposeResponse pairs one SKU's proposal and its explain record, the
// facade's per-SKU response shape.
type proposeResponse struct {
	Proposal interface{} `json:"proposal"`
	Explain  interface{} `json:"explain"`
}

func (s *Server) handleProposeSKU(w http.ResponseWriter, r *http.Request) {
	sku := mux.Vars(r)["sku"]

	orderDate, err := parseOrderDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lane := parseLane(r)

	proposal, explain, err := s.engine.ProposeOrderForSKU(r.Context(), sku, orderDate, lane, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, proposeResponse{Proposal: proposal, Explain: explain})
}

func (s *Server) handleBatchPropose(w http.ResponseWriter, r *http.Request) {
	orderDate, err := parseOrderDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lane := parseLane(r)

	proposals, explains, err := s.engine.ProposeBatch(r.Context(), orderDate, lane)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rows := make([]proposeResponse, len(proposals))
	for i := range proposals {
		rows[i] = proposeResponse{Proposal: proposals[i], Explain: explains[i]}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Collections.Settings)
}

// parseOrderDate reads ?order_date=YYYY-MM-DD, defaulting to today (UTC
// midnight) when absent.
func parseOrderDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("order_date")
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", raw)
}

// parseLane reads ?lane=, defaulting to the standard delivery lane.
func parseLane(r *http.Request) calendar.Lane {
	raw := r.URL.Query().Get("lane")
	if raw == "" {
		return calendar.LaneStandard
	}
	return calendar.Lane(raw)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
