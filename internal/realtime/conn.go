package realtime

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// DefaultURL points at the production realtime endpoint with the model
// pinned via query parameter.
const DefaultURL = "wss://api.openai.com/v1/realtime?model=gpt-4o-realtime-preview-2024-10-01"

// Conn is the duplex socket to the AI speech endpoint. Writes are
// serialized; the coordinator is the only reader.
type Conn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// Dial opens the endpoint socket with the endpoint-specific auth
// headers. A handshake failure here is fatal to the call.
func Dial(ctx context.Context, url, apiKey string) (*Conn, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+apiKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("dial realtime websocket: %w", err)
	}
	return &Conn{conn: conn}, nil
}

// ReadEvent blocks for the next inbound event. Malformed payloads are
// logged and skipped; only socket-level failures are returned.
func (c *Conn) ReadEvent() (any, error) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		ev, err := ParseEvent(data)
		if err != nil {
			log.Printf("realtime: dropping malformed event: %v", err)
			continue
		}
		return ev, nil
	}
}

func (c *Conn) SendSessionUpdate(cfg SessionConfig) error {
	return c.writeJSON(newSessionUpdate(cfg))
}

func (c *Conn) SendUserText(text string) error {
	return c.writeJSON(newUserText(text))
}

func (c *Conn) SendResponseCreate() error {
	return c.writeJSON(responseCreate{Type: "response.create"})
}

func (c *Conn) SendAudioAppend(audio string) error {
	return c.writeJSON(audioAppend{Type: "input_audio_buffer.append", Audio: audio})
}

func (c *Conn) SendTruncate(itemID string, audioEndMs int64) error {
	return c.writeJSON(newTruncate(itemID, audioEndMs))
}

func (c *Conn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
