package telephony

import (
	"strings"
	"testing"
)

func TestStreamTwiML(t *testing.T) {
	got := StreamTwiML("wss://example.com/media-stream/p1/seizure/616263")
	if !strings.Contains(got, `<Stream url="wss://example.com/media-stream/p1/seizure/616263" />`) {
		t.Fatalf("twiml missing stream element:\n%s", got)
	}
	if !strings.HasPrefix(got, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Fatalf("twiml missing xml declaration:\n%s", got)
	}
}

func TestStreamTwiMLEscapesURL(t *testing.T) {
	got := StreamTwiML("wss://example.com/ws?a=1&b=2")
	if strings.Contains(got, "a=1&b=2") {
		t.Fatalf("raw ampersand leaked into xml:\n%s", got)
	}
	if !strings.Contains(got, "a=1&amp;b=2") {
		t.Fatalf("ampersand not escaped:\n%s", got)
	}
}
