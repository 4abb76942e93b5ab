package telephony

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// StreamConn adapts an upgraded media-stream websocket to the typed
// frame interface the relay coordinator consumes. Writes are serialized
// because the websocket library allows only one concurrent writer.
type StreamConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func NewStreamConn(conn *websocket.Conn) *StreamConn {
	return &StreamConn{conn: conn}
}

// ReadFrame blocks for the next inbound frame. Malformed frames are
// logged and skipped; only socket-level failures are returned.
func (c *StreamConn) ReadFrame() (any, error) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		frame, err := ParseFrame(data)
		if err != nil {
			log.Printf("telephony: dropping malformed frame: %v", err)
			continue
		}
		return frame, nil
	}
}

func (c *StreamConn) WriteMedia(streamID, payload string) error {
	return c.writeJSON(newOutboundMedia(streamID, payload))
}

func (c *StreamConn) WriteMark(streamID, name string) error {
	return c.writeJSON(newOutboundMark(streamID, name))
}

func (c *StreamConn) WriteClear(streamID string) error {
	return c.writeJSON(newOutboundClear(streamID))
}

func (c *StreamConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *StreamConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
