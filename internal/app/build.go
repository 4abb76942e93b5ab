package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ajserban/raymed/internal/calls"
	"github.com/ajserban/raymed/internal/config"
	"github.com/ajserban/raymed/internal/geo"
	"github.com/ajserban/raymed/internal/httpapi"
	"github.com/ajserban/raymed/internal/observability"
	"github.com/ajserban/raymed/internal/patients"
	"github.com/ajserban/raymed/internal/telephony"
)

type BuildResult struct {
	Config   config.Config
	API      *httpapi.Server
	Patients patients.Store
	Registry *calls.Registry
	Metrics  *observability.Metrics

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

// Build wires the service from configuration: patient store, reverse
// geocoder, telephony REST client, call registry, metrics and the API
// server.
func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store, err := patients.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("patient store init failed: %w", err)
	}

	geocoder := geo.NewGeocoder(cfg.GeocoderBaseURL)
	if !geocoder.Enabled() {
		log.Printf("reverse geocoder disabled, coordinates pass through unchanged")
	}

	var tel *telephony.Client
	if strings.TrimSpace(cfg.TwilioAccountSID) != "" && strings.TrimSpace(cfg.TwilioAuthToken) != "" {
		tel, err = telephony.NewClient(telephony.ClientConfig{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			FromNumber: cfg.TwilioPhoneNumber,
			BaseURL:    cfg.TwilioAPIBaseURL,
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("telephony client init failed: %w", err)
		}
	} else {
		log.Printf("telephony credentials not set, call initiation disabled")
	}

	registry := calls.NewRegistry()
	api := httpapi.New(cfg, store, geocoder, tel, registry, metrics)

	cleanup := func() error {
		return store.Close()
	}

	return &BuildResult{
		Config:   cfg,
		API:      api,
		Patients: store,
		Registry: registry,
		Metrics:  metrics,
		Cleanup:  cleanup,
	}, nil
}
