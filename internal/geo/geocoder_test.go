package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReverseLookupResolvesAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Fatalf("path = %q, want /reverse", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("lat") != "44.43" || q.Get("lon") != "26.1" {
			t.Fatalf("coordinates = %q,%q", q.Get("lat"), q.Get("lon"))
		}
		if q.Get("format") != "jsonv2" {
			t.Fatalf("format = %q, want jsonv2", q.Get("format"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"display_name":"Strada Exemplu 10, Bucharest"}`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL)
	addr, err := g.ReverseLookup(context.Background(), 44.43, 26.1)
	if err != nil {
		t.Fatalf("ReverseLookup() error = %v", err)
	}
	if addr != "Strada Exemplu 10, Bucharest" {
		t.Fatalf("address = %q", addr)
	}
}

func TestReverseLookupDisabledPassesCoordinatesThrough(t *testing.T) {
	g := NewGeocoder("")
	if g.Enabled() {
		t.Fatal("Enabled() = true for empty base URL")
	}
	addr, err := g.ReverseLookup(context.Background(), 44.43, 26.1)
	if err != nil {
		t.Fatalf("ReverseLookup() error = %v", err)
	}
	if addr != "44.43,26.1" {
		t.Fatalf("address = %q, want coordinates", addr)
	}
}

func TestReverseLookupFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL)
	addr, err := g.ReverseLookup(context.Background(), 1.5, -2.25)
	if err == nil {
		t.Fatal("ReverseLookup() error = nil, want status error")
	}
	if addr != "1.5,-2.25" {
		t.Fatalf("fallback address = %q", addr)
	}
}

func TestReverseLookupEmptyDisplayNameFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"display_name":""}`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL)
	addr, err := g.ReverseLookup(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("ReverseLookup() error = %v", err)
	}
	if addr != "0,0" {
		t.Fatalf("address = %q, want coordinates", addr)
	}
}
