package calls

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

var ErrNotFound = errors.New("call not found")

// Call is the transient bookkeeping record for one active relay call.
// It exists only while the media stream is connected; nothing is
// persisted.
type Call struct {
	ID               string    `json:"call_id"`
	PatientID        string    `json:"patient_id"`
	IncidentType     string    `json:"incident_type"`
	IncidentLocation string    `json:"incident_location"`
	StreamID         string    `json:"stream_id,omitempty"`
	Status           Status    `json:"status"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at,omitempty"`
}

// Registry tracks in-flight calls for observability and the health
// endpoints.
type Registry struct {
	mu    sync.RWMutex
	calls map[string]*Call
}

func NewRegistry() *Registry {
	return &Registry{calls: make(map[string]*Call)}
}

func (r *Registry) Register(patientID, incidentType, incidentLocation string) *Call {
	c := &Call{
		ID:               uuid.NewString(),
		PatientID:        patientID,
		IncidentType:     incidentType,
		IncidentLocation: incidentLocation,
		Status:           StatusActive,
		StartedAt:        time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[c.ID] = c
	return clone(c)
}

func (r *Registry) Get(id string) (*Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calls[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

// FindActiveByPatient returns the most recently started active call
// for a patient. Media-stream connections are keyed by patient, not by
// call, so this is how a connecting stream finds its ledger entry.
func (r *Registry) FindActiveByPatient(patientID string) (*Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *Call
	for _, c := range r.calls {
		if c.PatientID != patientID {
			continue
		}
		if latest == nil || c.StartedAt.After(latest.StartedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return clone(latest), nil
}

// SetStream records the stream identifier once the telephony side
// assigns one.
func (r *Registry) SetStream(id, streamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return ErrNotFound
	}
	c.StreamID = streamID
	return nil
}

// End marks the call finished and drops it from the active set.
func (r *Registry) End(id string) (*Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Status = StatusEnded
	c.EndedAt = time.Now().UTC()
	delete(r.calls, id)
	return clone(c), nil
}

func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}

func clone(c *Call) *Call {
	out := *c
	return &out
}
