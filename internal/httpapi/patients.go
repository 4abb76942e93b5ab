package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ajserban/raymed/internal/config"
	"github.com/ajserban/raymed/internal/patients"
)

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, patients.ErrNotFound) {
			respondError(w, http.StatusNotFound, "patient_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var in patients.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_patient", err.Error())
		return
	}
	p, err := s.store.Create(r.Context(), in)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in patients.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	p, err := s.store.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, patients.ErrNotFound) {
			respondError(w, http.StatusNotFound, "patient_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, patients.ErrNotFound) {
			respondError(w, http.StatusNotFound, "patient_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

type agentContextRequest struct {
	IncidentType     string `json:"incident_type"`
	IncidentLocation string `json:"incident_location"`
}

// handlePatientForAgent returns the operator briefing the AI agent
// opens the emergency call with.
func (s *Server) handlePatientForAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req agentContextRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	briefing, err := s.resolveBriefing(r.Context(), id, req.IncidentType, req.IncidentLocation)
	if err != nil {
		respondError(w, http.StatusNotFound, "patient_not_found", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"patient_prompt": briefing})
}

// resolveBriefing builds the agent briefing for a patient. When the
// record is missing, the configured fallback policy decides between a
// generic briefing and refusing the call.
func (s *Server) resolveBriefing(ctx context.Context, patientID, incidentType, incidentLocation string) (string, error) {
	p, err := s.store.Get(ctx, patientID)
	if err == nil {
		return patients.Briefing(p, incidentType, incidentLocation), nil
	}
	if !errors.Is(err, patients.ErrNotFound) {
		return "", err
	}

	if s.cfg.ContextFallback == config.ContextFallbackAbort {
		log.Printf("httpapi: no record for patient %s, refusing call", patientID)
		s.countCallEvent("aborted_no_context")
		return "", err
	}
	if strings.TrimSpace(incidentLocation) == "" {
		// Without a record there is no fallback address either; the
		// generic briefing tells the agent to say so.
		log.Printf("httpapi: generic briefing for patient %s has no location", patientID)
	}
	log.Printf("httpapi: no record for patient %s, using generic briefing", patientID)
	s.countCallEvent("generic_briefing")
	return patients.GenericBriefing(incidentType, incidentLocation), nil
}

func (s *Server) countCallEvent(event string) {
	if s.metrics == nil {
		return
	}
	s.metrics.CallEvents.WithLabelValues(event).Inc()
}
