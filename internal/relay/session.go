package relay

// Session holds the mutable per-call state shared by the two link
// handlers. It is exclusively owned by one Coordinator and mutated only
// from the coordinator's event loop, so no locking is needed.
type Session struct {
	// StreamID is assigned by the telephony side once the stream starts,
	// empty before then.
	StreamID string

	// LatestMediaTimestampMs is the caller-side media clock in
	// milliseconds since stream start. Reset to 0 on each stream epoch.
	LatestMediaTimestampMs int64

	// ActiveUtteranceID identifies the AI's current in-flight spoken
	// item, empty when none.
	ActiveUtteranceID string

	responseStartMs  int64
	responseStartSet bool

	// Marks holds the outstanding playback-acknowledgement tokens.
	Marks MarkQueue
}

func NewSession() *Session {
	return &Session{}
}

// ResetEpoch begins a new stream epoch: timestamps restart at zero and
// any response reference point from a previous epoch is discarded.
func (s *Session) ResetEpoch(streamID string) {
	s.StreamID = streamID
	s.LatestMediaTimestampMs = 0
	s.responseStartSet = false
	s.responseStartMs = 0
}

// ObserveMediaTimestamp records the caller clock declared by an inbound
// media frame. The telephony side guarantees non-decreasing timestamps
// within a stream epoch.
func (s *Session) ObserveMediaTimestamp(tsMs int64) {
	s.LatestMediaTimestampMs = tsMs
}

// MarkResponseStart captures the caller-clock moment AI audio started
// playing. Set at most once per utterance: later chunks of the same
// response keep the original reference point.
func (s *Session) MarkResponseStart() {
	if s.responseStartSet {
		return
	}
	s.responseStartMs = s.LatestMediaTimestampMs
	s.responseStartSet = true
}

// ResponseStart returns the reference timestamp for the current AI
// utterance, and whether one is set.
func (s *Session) ResponseStart() (int64, bool) {
	return s.responseStartMs, s.responseStartSet
}

// ClearPlayback returns the session to its "no AI audio in flight"
// state after a barge-in or utterance completion.
func (s *Session) ClearPlayback() {
	s.Marks.Reset()
	s.ActiveUtteranceID = ""
	s.responseStartSet = false
	s.responseStartMs = 0
}
