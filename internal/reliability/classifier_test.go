package reliability

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tc := range cases {
		got := IsRetryableHTTPStatus(tc.code)
		if got != tc.want {
			t.Fatalf("IsRetryableHTTPStatus(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestIsNormalClosure(t *testing.T) {
	if IsNormalClosure(nil) {
		t.Fatalf("nil error should not count as closure")
	}
	if !IsNormalClosure(io.EOF) {
		t.Fatalf("io.EOF should count as closure")
	}
	closeErr := &websocket.CloseError{Code: websocket.CloseNormalClosure}
	if !IsNormalClosure(closeErr) {
		t.Fatalf("normal close frame should count as closure")
	}
	abnormal := &websocket.CloseError{Code: websocket.CloseAbnormalClosure}
	if IsNormalClosure(abnormal) {
		t.Fatalf("abnormal close frame should not count as closure")
	}
	if IsNormalClosure(errors.New("connection reset")) {
		t.Fatalf("arbitrary error should not count as closure")
	}
}

func TestExponentialBackoffCap(t *testing.T) {
	base := 100 * time.Millisecond
	capDur := 700 * time.Millisecond
	if got := ExponentialBackoff(0, base, capDur); got != base {
		t.Fatalf("attempt 0 = %v, want %v", got, base)
	}
	if got := ExponentialBackoff(10, base, capDur); got != capDur {
		t.Fatalf("attempt 10 = %v, want %v", got, capDur)
	}
}
