package telephony

import (
	"encoding/json"
	"fmt"
)

// Inbound media-stream frames, decoded from the JSON the telephony
// provider sends over the duplex socket. Frames are discriminated by
// the "event" field; unknown events decode to UnrecognizedFrame so the
// coordinator can drop them without tearing down the call.

// StartFrame opens a new stream epoch.
type StartFrame struct {
	StreamID string
	CallID   string
}

// MediaFrame carries one chunk of caller audio plus the caller clock.
type MediaFrame struct {
	TimestampMs int64
	Payload     string
}

// MarkFrame acknowledges a previously sent mark.
type MarkFrame struct {
	Name string
}

// StopFrame signals the provider is ending the stream.
type StopFrame struct{}

// UnrecognizedFrame is any frame with an event name the relay does not
// handle.
type UnrecognizedFrame struct {
	Event string
}

type wireFrame struct {
	Event string     `json:"event"`
	Start *wireStart `json:"start,omitempty"`
	Media *wireMedia `json:"media,omitempty"`
	Mark  *wireMark  `json:"mark,omitempty"`
}

type wireStart struct {
	StreamSID string `json:"streamSid"`
	CallSID   string `json:"callSid,omitempty"`
}

type wireMedia struct {
	// The provider declares the timestamp as a string; tolerate plain
	// numbers as well.
	Timestamp json.Number `json:"timestamp"`
	Payload   string      `json:"payload"`
}

type wireMark struct {
	Name string `json:"name"`
}

// ParseFrame decodes one inbound media-stream frame.
func ParseFrame(raw []byte) (any, error) {
	var frame wireFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("invalid media-stream frame: %w", err)
	}

	switch frame.Event {
	case "start":
		if frame.Start == nil {
			return nil, fmt.Errorf("start frame missing start payload")
		}
		return StartFrame{StreamID: frame.Start.StreamSID, CallID: frame.Start.CallSID}, nil
	case "media":
		if frame.Media == nil {
			return nil, fmt.Errorf("media frame missing media payload")
		}
		ts, err := frame.Media.Timestamp.Int64()
		if err != nil && frame.Media.Timestamp != "" {
			return nil, fmt.Errorf("media frame timestamp: %w", err)
		}
		return MediaFrame{TimestampMs: ts, Payload: frame.Media.Payload}, nil
	case "mark":
		var name string
		if frame.Mark != nil {
			name = frame.Mark.Name
		}
		return MarkFrame{Name: name}, nil
	case "stop":
		return StopFrame{}, nil
	default:
		return UnrecognizedFrame{Event: frame.Event}, nil
	}
}

// Outbound frames sent back to the telephony side.

type outboundMedia struct {
	Event     string               `json:"event"`
	StreamSID string               `json:"streamSid"`
	Media     outboundMediaPayload `json:"media"`
}

type outboundMediaPayload struct {
	Payload string `json:"payload"`
}

type outboundMark struct {
	Event     string   `json:"event"`
	StreamSID string   `json:"streamSid"`
	Mark      wireMark `json:"mark"`
}

type outboundClear struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
}

func newOutboundMedia(streamID, payload string) outboundMedia {
	return outboundMedia{Event: "media", StreamSID: streamID, Media: outboundMediaPayload{Payload: payload}}
}

func newOutboundMark(streamID, name string) outboundMark {
	return outboundMark{Event: "mark", StreamSID: streamID, Mark: wireMark{Name: name}}
}

func newOutboundClear(streamID string) outboundClear {
	return outboundClear{Event: "clear", StreamSID: streamID}
}
