package realtime

import (
	"encoding/json"
	"fmt"
)

// Audio codec identifiers for the realtime session. The telephony side
// streams G.711 mu-law, so the session is configured to accept and emit
// it unchanged and the relay never transcodes.
const (
	AudioFormatG711ULaw = "g711_ulaw"
	TurnDetectionServer = "server_vad"
)

// Inbound events, discriminated by the "type" field.

// AudioDelta carries one chunk of AI-generated audio.
type AudioDelta struct {
	Delta  string
	ItemID string
}

// SpeechStarted signals the endpoint's voice-activity detector heard the
// caller begin speaking.
type SpeechStarted struct{}

// UpstreamError is a non-fatal error report from the endpoint.
type UpstreamError struct {
	Code    string
	Message string
}

// Unrecognized is any inbound event type the relay does not handle.
type Unrecognized struct {
	Type string
}

type wireEvent struct {
	Type   string            `json:"type"`
	Delta  string            `json:"delta,omitempty"`
	ItemID string            `json:"item_id,omitempty"`
	Error  *wireErrorDetails `json:"error,omitempty"`
}

type wireErrorDetails struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseEvent decodes one inbound endpoint event.
func ParseEvent(raw []byte) (any, error) {
	var ev wireEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("invalid realtime event: %w", err)
	}

	switch ev.Type {
	case "response.audio.delta":
		return AudioDelta{Delta: ev.Delta, ItemID: ev.ItemID}, nil
	case "input_audio_buffer.speech_started":
		return SpeechStarted{}, nil
	case "error":
		e := UpstreamError{}
		if ev.Error != nil {
			e.Code = ev.Error.Code
			e.Message = ev.Error.Message
		}
		return e, nil
	default:
		return Unrecognized{Type: ev.Type}, nil
	}
}

// SessionConfig holds the per-call knobs for the session.update
// handshake event.
type SessionConfig struct {
	Voice        string
	Instructions string
	Temperature  float64
}

type sessionUpdateEvent struct {
	Type    string         `json:"type"`
	Session sessionDetails `json:"session"`
}

type sessionDetails struct {
	TurnDetection     turnDetection `json:"turn_detection"`
	InputAudioFormat  string        `json:"input_audio_format"`
	OutputAudioFormat string        `json:"output_audio_format"`
	Voice             string        `json:"voice"`
	Instructions      string        `json:"instructions"`
	Modalities        []string      `json:"modalities"`
	Temperature       float64       `json:"temperature"`
}

type turnDetection struct {
	Type string `json:"type"`
}

func newSessionUpdate(cfg SessionConfig) sessionUpdateEvent {
	return sessionUpdateEvent{
		Type: "session.update",
		Session: sessionDetails{
			TurnDetection:     turnDetection{Type: TurnDetectionServer},
			InputAudioFormat:  AudioFormatG711ULaw,
			OutputAudioFormat: AudioFormatG711ULaw,
			Voice:             cfg.Voice,
			Instructions:      cfg.Instructions,
			Modalities:        []string{"text", "audio"},
			Temperature:       cfg.Temperature,
		},
	}
}

type conversationItemCreate struct {
	Type string           `json:"type"`
	Item conversationItem `json:"item"`
}

type conversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []itemContent `json:"content"`
}

type itemContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func newUserText(text string) conversationItemCreate {
	return conversationItemCreate{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type:    "message",
			Role:    "user",
			Content: []itemContent{{Type: "input_text", Text: text}},
		},
	}
}

type responseCreate struct {
	Type string `json:"type"`
}

type audioAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type itemTruncate struct {
	Type         string `json:"type"`
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int64  `json:"audio_end_ms"`
}

func newTruncate(itemID string, audioEndMs int64) itemTruncate {
	return itemTruncate{
		Type:         "conversation.item.truncate",
		ItemID:       itemID,
		ContentIndex: 0,
		AudioEndMs:   audioEndMs,
	}
}
