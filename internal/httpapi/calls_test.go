package httpapi

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ajserban/raymed/internal/config"
	"github.com/ajserban/raymed/internal/telephony"
)

type providerCapture struct {
	mu    sync.Mutex
	calls []map[string]string
	sms   []map[string]string
}

func newFakeProvider(t *testing.T) (*telephony.Client, *providerCapture) {
	t.Helper()
	capture := &providerCapture{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		capture.mu.Lock()
		defer capture.mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/Calls.json"):
			capture.calls = append(capture.calls, form)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"sid":"CA123","status":"queued"}`))
		case strings.HasSuffix(r.URL.Path, "/Messages.json"):
			capture.sms = append(capture.sms, form)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"sid":"SM456","status":"queued"}`))
		default:
			t.Fatalf("unexpected provider path %q", r.URL.Path)
		}
	}))
	t.Cleanup(ts.Close)

	client, err := telephony.NewClient(telephony.ClientConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550001111",
		BaseURL:    ts.URL,
		HTTPClient: ts.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client, capture
}

func TestInitiateCall(t *testing.T) {
	tel, capture := newFakeProvider(t)
	cfg := config.Config{
		PublicHost:      "relay.example.org",
		EmergencyNumber: "+40112112112",
	}
	srv, store, registry := newTestServer(t, cfg, tel)
	p := seedPatient(t, store)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/call/"+p.ID, initiateCallRequest{
		IncidentType:     "fall",
		IncidentLocation: "Parcul Herastrau",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /call = %d, body %s", rec.Code, rec.Body.String())
	}
	var res initiateCallResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.CallSID != "CA123" || res.MessageSID != "SM456" {
		t.Fatalf("response = %+v", res)
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()
	if len(capture.calls) != 1 || len(capture.sms) != 1 {
		t.Fatalf("provider requests: calls=%d sms=%d", len(capture.calls), len(capture.sms))
	}
	call := capture.calls[0]
	if call["To"] != "+40112112112" {
		t.Fatalf("call To = %q", call["To"])
	}
	if !strings.Contains(call["Url"], "https://relay.example.org/twiml/"+p.ID) {
		t.Fatalf("call Url = %q", call["Url"])
	}
	sms := capture.sms[0]
	if sms["To"] != p.CaretakerPhone {
		t.Fatalf("sms To = %q, want caretaker phone", sms["To"])
	}
	if !strings.Contains(sms["Body"], p.Name) || !strings.Contains(sms["Body"], "fall") {
		t.Fatalf("sms Body = %q", sms["Body"])
	}

	if registry.ActiveCount() != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", registry.ActiveCount())
	}
	rec = doJSON(t, router, http.MethodGet, "/call/"+res.CallID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /call/{id} = %d", rec.Code)
	}
}

func TestInitiateCallUnknownPatient(t *testing.T) {
	tel, _ := newFakeProvider(t)
	srv, _, registry := newTestServer(t, config.Config{PublicHost: "relay.example.org"}, tel)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/call/missing", initiateCallRequest{IncidentType: "fall"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("POST /call = %d, want 404", rec.Code)
	}
	if registry.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d, want 0", registry.ActiveCount())
	}
}

func TestInitiateCallWithoutTelephony(t *testing.T) {
	srv, store, _ := newTestServer(t, config.Config{PublicHost: "relay.example.org"}, nil)
	p := seedPatient(t, store)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/call/"+p.ID, initiateCallRequest{IncidentType: "fall"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("POST /call = %d, want 503", rec.Code)
	}
}

func TestInitiateCallDefaultsToPatientAddress(t *testing.T) {
	tel, capture := newFakeProvider(t)
	cfg := config.Config{PublicHost: "relay.example.org", EmergencyNumber: "+40112112112"}
	srv, store, _ := newTestServer(t, cfg, tel)
	p := seedPatient(t, store)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/call/"+p.ID, initiateCallRequest{IncidentType: "fall"})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /call = %d", rec.Code)
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()
	if !strings.Contains(capture.calls[0]["Url"], "incident_location=") {
		t.Fatalf("call Url = %q, want incident_location param", capture.calls[0]["Url"])
	}
	if !strings.Contains(capture.sms[0]["Body"], p.Address) {
		t.Fatalf("sms Body = %q, want patient address", capture.sms[0]["Body"])
	}
}

func TestTwiMLEmbedsHexLocation(t *testing.T) {
	srv, _, _ := newTestServer(t, config.Config{PublicHost: "relay.example.org"}, nil)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/twiml/p1?incident_type=fall&incident_location=Strada+Exemplu+10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /twiml = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/xml" {
		t.Fatalf("Content-Type = %q, want text/xml", ct)
	}

	encoded := hex.EncodeToString([]byte("Strada Exemplu 10"))
	want := "wss://relay.example.org/media-stream/p1/fall/" + encoded
	if !strings.Contains(rec.Body.String(), want) {
		t.Fatalf("twiml = %s, want stream URL %q", rec.Body.String(), want)
	}
	if !strings.Contains(rec.Body.String(), "<Connect>") {
		t.Fatalf("twiml = %s, want <Connect> verb", rec.Body.String())
	}
}

func TestGetCallNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t, config.Config{}, nil)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodGet, "/call/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /call = %d, want 404", rec.Code)
	}
}
