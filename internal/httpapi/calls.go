package httpapi

import (
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ajserban/raymed/internal/calls"
	"github.com/ajserban/raymed/internal/patients"
	"github.com/ajserban/raymed/internal/telephony"
)

type initiateCallRequest struct {
	IncidentType     string   `json:"incident_type"`
	IncidentLocation string   `json:"incident_location"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
}

type initiateCallResponse struct {
	Message    string `json:"message"`
	CallID     string `json:"call_id"`
	CallSID    string `json:"call_sid"`
	MessageSID string `json:"message_sid,omitempty"`
}

// handleInitiateCall places the outbound emergency call for a patient
// and notifies the caretaker by SMS.
func (s *Server) handleInitiateCall(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req initiateCallRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if s.tel == nil {
		respondError(w, http.StatusServiceUnavailable, "telephony_unconfigured", "telephony credentials are not configured")
		return
	}
	if strings.TrimSpace(s.cfg.PublicHost) == "" {
		respondError(w, http.StatusServiceUnavailable, "public_host_unconfigured", "APP_PUBLIC_HOST is required to serve call webhooks")
		return
	}

	// The caretaker SMS needs the patient record, so call initiation
	// requires one even under the generic-briefing fallback.
	p, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, patients.ErrNotFound) {
			respondError(w, http.StatusNotFound, "patient_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	location := strings.TrimSpace(req.IncidentLocation)
	if location == "" && req.Latitude != nil && req.Longitude != nil {
		resolved, err := s.geocoder.ReverseLookup(r.Context(), *req.Latitude, *req.Longitude)
		if err != nil {
			// The coordinate fallback from the geocoder is still usable.
			log.Printf("httpapi: reverse geocode failed: %v", err)
		}
		location = resolved
	}
	if location == "" {
		location = p.Address
	}

	call := s.registry.Register(id, req.IncidentType, location)
	s.setActiveCallsGauge()
	s.countCallEvent("initiated")

	q := url.Values{}
	q.Set("incident_type", req.IncidentType)
	q.Set("incident_location", location)
	twimlURL := "https://" + s.cfg.PublicHost + "/twiml/" + url.PathEscape(id) + "?" + q.Encode()

	callRes, err := s.tel.CreateCall(r.Context(), s.cfg.EmergencyNumber, twimlURL)
	if err != nil {
		_, _ = s.registry.End(call.ID)
		s.setActiveCallsGauge()
		s.countCallEvent("initiation_failed")
		log.Printf("httpapi: initiate call for patient %s: %v", id, err)
		respondError(w, http.StatusBadGateway, "call_failed", "failed to initiate call")
		return
	}

	res := initiateCallResponse{
		Message: "call initiated",
		CallID:  call.ID,
		CallSID: callRes.SID,
	}

	sms, err := s.tel.SendSMS(r.Context(), p.CaretakerPhone, patients.CaretakerNotification(p, req.IncidentType, location))
	if err != nil {
		// The emergency call is already in flight; a failed caretaker
		// notification must not fail the request.
		log.Printf("httpapi: caretaker SMS for patient %s: %v", id, err)
		s.countCallEvent("sms_failed")
	} else {
		res.MessageSID = sms.SID
		res.Message = "call initiated and caretaker notified"
	}

	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetCall(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	call, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			respondError(w, http.StatusNotFound, "call_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "registry_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, call)
}

// handleTwiML answers the provider's webhook with the stream-connect
// document. The incident location travels hex-encoded inside the
// websocket path so it survives URL handling on the provider side.
func (s *Server) handleTwiML(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	incidentType := r.URL.Query().Get("incident_type")
	incidentLocation := r.URL.Query().Get("incident_location")

	encodedLocation := hex.EncodeToString([]byte(incidentLocation))
	wsURL := "wss://" + s.cfg.PublicHost + "/media-stream/" +
		url.PathEscape(id) + "/" + url.PathEscape(incidentType) + "/" + encodedLocation

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(telephony.StreamTwiML(wsURL)))
}

func (s *Server) setActiveCallsGauge() {
	if s.metrics == nil {
		return
	}
	s.metrics.ActiveCalls.Set(float64(s.registry.ActiveCount()))
}
