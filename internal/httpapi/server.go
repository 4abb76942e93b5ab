package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ajserban/raymed/internal/calls"
	"github.com/ajserban/raymed/internal/config"
	"github.com/ajserban/raymed/internal/geo"
	"github.com/ajserban/raymed/internal/observability"
	"github.com/ajserban/raymed/internal/patients"
	"github.com/ajserban/raymed/internal/realtime"
	"github.com/ajserban/raymed/internal/relay"
	"github.com/ajserban/raymed/internal/telephony"
)

// AIDialer opens a connection to the AI speech endpoint for one call.
type AIDialer func(ctx context.Context, url, apiKey string) (relay.AILink, error)

type Server struct {
	cfg      config.Config
	store    patients.Store
	geocoder *geo.Geocoder
	tel      *telephony.Client
	registry *calls.Registry
	metrics  *observability.Metrics
	dialAI   AIDialer
	upgrader websocket.Upgrader
}

func New(cfg config.Config, store patients.Store, geocoder *geo.Geocoder, tel *telephony.Client, registry *calls.Registry, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		geocoder: geocoder,
		tel:      tel,
		registry: registry,
		metrics:  metrics,
		dialAI: func(ctx context.Context, url, apiKey string) (relay.AILink, error) {
			return realtime.Dial(ctx, url, apiKey)
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The media-stream peer is the telephony provider, not a
			// browser; it sends no Origin header worth checking.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// SetAIDialer replaces the production AI dialer. Used by tests.
func (s *Server) SetAIDialer(d AIDialer) {
	if d != nil {
		s.dialAI = d
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/patients", s.handleListPatients)
	r.Post("/patient", s.handleCreatePatient)
	r.Get("/patient/{id}", s.handleGetPatient)
	r.Patch("/patient/{id}", s.handleUpdatePatient)
	r.Delete("/patient/{id}", s.handleDeletePatient)
	r.Post("/patient-for-agent/{id}", s.handlePatientForAgent)

	r.Post("/call/{id}", s.handleInitiateCall)
	r.Get("/call/{id}", s.handleGetCall)
	r.Post("/twiml/{id}", s.handleTwiML)
	r.Get("/media-stream/{id}/{incidentType}/{encodedLocation}", s.handleMediaStream)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"active_calls": s.registry.ActiveCount(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Readiness means the patient store answers; a dead database would
	// make every call setup fail at briefing time.
	if _, err := s.store.List(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
