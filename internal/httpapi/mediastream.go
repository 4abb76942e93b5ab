package httpapi

import (
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ajserban/raymed/internal/relay"
	"github.com/ajserban/raymed/internal/telephony"
)

// handleMediaStream accepts the provider's media-stream websocket and
// runs a relay between the caller and the AI endpoint for the lifetime
// of the call.
func (s *Server) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	incidentType := chi.URLParam(r, "incidentType")
	encodedLocation := chi.URLParam(r, "encodedLocation")

	locationBytes, err := hex.DecodeString(encodedLocation)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_location", "incident location is not valid hex")
		return
	}
	incidentLocation := string(locationBytes)

	// Resolve context before upgrading so a refused call is an HTTP
	// error the provider can log, not a dropped socket.
	briefing, err := s.resolveBriefing(r.Context(), id, incidentType, incidentLocation)
	if err != nil {
		respondError(w, http.StatusNotFound, "patient_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	accepted := time.Now()
	tel := telephony.NewStreamConn(conn)
	s.countCallEvent("stream_connected")

	aiConn, err := s.dialAI(r.Context(), s.cfg.RealtimeURL, s.cfg.OpenAIAPIKey)
	if err != nil {
		log.Printf("httpapi: dial AI endpoint: %v", err)
		s.countCallEvent("ai_dial_failed")
		_ = tel.Close()
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveCallSetupLatency(time.Since(accepted))
	}

	relayCfg := relay.Config{
		Instructions: s.cfg.AgentInstructions,
		Briefing:     briefing,
		Voice:        s.cfg.RealtimeVoice,
		Temperature:  s.cfg.RealtimeTemperature,
		SettleDelay:  s.cfg.SessionSettleDelay,
	}

	if call, err := s.registry.FindActiveByPatient(id); err == nil {
		callID := call.ID
		relayCfg.OnStreamStart = func(streamID string) {
			if err := s.registry.SetStream(callID, streamID); err != nil {
				log.Printf("httpapi: record stream for call %s: %v", callID, err)
			}
		}
		defer func() {
			if _, err := s.registry.End(callID); err == nil {
				s.setActiveCallsGauge()
			}
		}()
	}

	coord := relay.NewCoordinator(relayCfg, tel, aiConn, s.metrics)
	if err := coord.Run(r.Context()); err != nil {
		log.Printf("httpapi: relay for patient %s ended: %v", id, err)
	}
	s.countCallEvent("stream_disconnected")
}
