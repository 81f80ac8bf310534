package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"krushi/entities"
)

type httpLocator struct {
	endpoint, key string
	httpc         *http.Client
}

// NewHTTPLocator queries a JSON geolocation provider. An empty endpoint
// yields nil, which a Probe reports as Unsupported.
func NewHTTPLocator(endpoint, key string) Locator {
	if strings.TrimSpace(endpoint) == "" {
		return nil
	}
	return &httpLocator{endpoint: endpoint, key: key, httpc: &http.Client{Timeout: 15 * time.Second}}
}

func (l *httpLocator) Locate(ctx context.Context) (entities.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return entities.Coordinates{}, &Failure{Kind: Unsupported, Err: err}
	}
	if l.key != "" {
		req.Header.Set("Authorization", "Bearer "+l.key)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := l.httpc.Do(req)
	if err != nil {
		return entities.Coordinates{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return entities.Coordinates{}, &Failure{Kind: Denied, Err: fmt.Errorf("provider returned %s", resp.Status)}
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusNotImplemented:
		return entities.Coordinates{}, &Failure{Kind: Unsupported, Err: fmt.Errorf("provider returned %s", resp.Status)}
	case resp.StatusCode/100 != 2:
		return entities.Coordinates{}, fmt.Errorf("provider returned %s", resp.Status)
	}

	// providers disagree on key names
	var out struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Lat       *float64 `json:"lat"`
		Lon       *float64 `json:"lon"`
		Lng       *float64 `json:"lng"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return entities.Coordinates{}, fmt.Errorf("decode position: %w", err)
	}
	lat := firstSet(out.Latitude, out.Lat)
	lon := firstSet(out.Longitude, out.Lon, out.Lng)
	if lat == nil || lon == nil {
		return entities.Coordinates{}, fmt.Errorf("position missing from provider response")
	}
	return entities.Coordinates{Latitude: *lat, Longitude: *lon}, nil
}

func firstSet(vs ...*float64) *float64 {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}
