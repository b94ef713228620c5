package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/routex/fleetlive/core/logger"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Config tunes the Nominatim client.
type Config struct {
	BaseURL   string `json:"base_url"`
	TimeoutMS int    `json:"timeout_ms"`
	// CountryCodes narrows search results, e.g. "in".
	CountryCodes string `json:"country_codes"`
	Limit        int    `json:"limit"`
}

// SetDefaults applies client defaults.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 4000
	}
	if c.Limit == 0 {
		c.Limit = 8
	}
}

// Client resolves place names near a locality via the Nominatim search
// API. It only flavors generated route destinations; callers fall back
// to a static pool on any failure.
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger
}

// New creates a Client. log may be nil.
func New(cfg Config, log logger.Logger) *Client {
	cfg.SetDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
		log:  log,
	}
}

type searchResult struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// ResolveNearby returns place names around the locality.
func (c *Client) ResolveNearby(ctx context.Context, locality string) ([]string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", locality)
	q.Set("limit", fmt.Sprint(c.cfg.Limit))
	q.Set("addressdetails", "1")
	if c.cfg.CountryCodes != "" {
		q.Set("countrycodes", c.cfg.CountryCodes)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "fleetlive/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: unexpected status %s", resp.Status)
	}
	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}

	var places []string
	for _, r := range results {
		name := r.Name
		if name == "" {
			// display_name is a comma-joined hierarchy; the first part
			// is the place itself
			name = strings.SplitN(r.DisplayName, ",", 2)[0]
		}
		name = strings.TrimSpace(name)
		if name != "" && name != locality {
			places = append(places, name)
		}
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("geocode: no places near %q", locality)
	}
	return places, nil
}
