package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Geocoder resolves a coordinate pair to a human-readable address.
// Emergency operators need a street address, not raw coordinates.
type Geocoder struct {
	baseURL string
	client  *http.Client
}

// NewGeocoder wraps a Nominatim-compatible reverse endpoint. An empty
// baseURL returns a disabled geocoder that passes coordinates through.
func NewGeocoder(baseURL string) *Geocoder {
	return &Geocoder{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether a reverse endpoint is configured.
func (g *Geocoder) Enabled() bool {
	return g != nil && g.baseURL != ""
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

// ReverseLookup resolves lat/lon to a display address. When the
// geocoder is disabled or the endpoint returns nothing usable, the
// coordinates are returned formatted as "lat,lon" so the call can
// still proceed with something the dispatcher can act on.
func (g *Geocoder) ReverseLookup(ctx context.Context, lat, lon float64) (string, error) {
	fallback := formatCoordinates(lat, lon)
	if !g.Enabled() {
		return fallback, nil
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return fallback, fmt.Errorf("create reverse request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return fallback, fmt.Errorf("reverse lookup: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fallback, fmt.Errorf("reverse lookup status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed reverseResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fallback, fmt.Errorf("decode reverse response: %w", err)
	}
	if strings.TrimSpace(parsed.DisplayName) == "" {
		return fallback, nil
	}
	return parsed.DisplayName, nil
}

func formatCoordinates(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}
