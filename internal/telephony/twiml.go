package telephony

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// StreamTwiML renders the call-instruction document that tells the
// provider to open a bidirectional media stream to wsURL.
func StreamTwiML(wsURL string) string {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(wsURL))

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
    <Connect>
        <Stream url="%s" />
    </Connect>
</Response>`, escaped.String())
}
