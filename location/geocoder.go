package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultOverpassURL  = "https://overpass-api.de"
	// DefaultRadius is how far around the fix cross street candidates are
	// searched, in metres.
	DefaultRadius = 60
)

// Place is the raw geocoding result for one fix.
type Place struct {
	Street string
	// Nearby lists named roads around the fix, closest first as far as the
	// source orders them. It may contain the street itself.
	Nearby []string
}

type Geocoder interface {
	Reverse(ctx context.Context, fix Fix) (Place, error)
}

// HTTPDoer is satisfied by *Client and *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type OSMConfig struct {
	NominatimURL string
	OverpassURL  string
	Radius       int
	// Email is passed to Nominatim as the contact address.
	Email string
}

// OSMGeocoder resolves the street with a Nominatim reverse lookup and the
// cross street candidates with an Overpass around query.
type OSMGeocoder struct {
	cfg  OSMConfig
	http HTTPDoer
}

func NewOSMGeocoder(doer HTTPDoer, cfg OSMConfig) *OSMGeocoder {
	if cfg.NominatimURL == "" {
		cfg.NominatimURL = DefaultNominatimURL
	}
	if cfg.OverpassURL == "" {
		cfg.OverpassURL = DefaultOverpassURL
	}
	if cfg.Radius <= 0 {
		cfg.Radius = DefaultRadius
	}
	cfg.NominatimURL = strings.TrimRight(cfg.NominatimURL, "/")
	cfg.OverpassURL = strings.TrimRight(cfg.OverpassURL, "/")
	return &OSMGeocoder{cfg: cfg, http: doer}
}

type nominatimResponse struct {
	Name    string `json:"name"`
	Error   string `json:"error"`
	Address struct {
		Road       string `json:"road"`
		Pedestrian string `json:"pedestrian"`
		Footway    string `json:"footway"`
	} `json:"address"`
}

type overpassResponse struct {
	Elements []struct {
		Type string            `json:"type"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

func (g *OSMGeocoder) Reverse(ctx context.Context, fix Fix) (Place, error) {
	if err := fix.Validate(); err != nil {
		return Place{}, err
	}
	street, err := g.street(ctx, fix)
	if err != nil {
		return Place{}, err
	}
	nearby, err := g.nearby(ctx, fix)
	if err != nil {
		// the street alone is still worth announcing
		return Place{Street: street}, fmt.Errorf("overpass: %w", err)
	}
	return Place{Street: street, Nearby: nearby}, nil
}

func (g *OSMGeocoder) street(ctx context.Context, fix Fix) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(fix.Lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(fix.Lon, 'f', 6, 64))
	q.Set("zoom", "17")
	q.Set("addressdetails", "1")
	if g.cfg.Email != "" {
		q.Set("email", g.cfg.Email)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.NominatimURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	var body nominatimResponse
	if err := g.fetch(req, &body); err != nil {
		return "", fmt.Errorf("nominatim: %w", err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("nominatim: %s", body.Error)
	}
	for _, s := range []string{body.Address.Road, body.Address.Pedestrian, body.Address.Footway} {
		if s = strings.TrimSpace(s); s != "" {
			return s, nil
		}
	}
	return "", nil
}

func (g *OSMGeocoder) nearby(ctx context.Context, fix Fix) ([]string, error) {
	query := fmt.Sprintf("[out:json][timeout:10];way(around:%d,%f,%f)[highway][name];out tags;",
		g.cfg.Radius, fix.Lat, fix.Lon)
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.OverpassURL+"/api/interpreter",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var body overpassResponse
	if err := g.fetch(req, &body); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	names := make([]string, 0, len(body.Elements))
	for _, el := range body.Elements {
		name := strings.TrimSpace(el.Tags["name"])
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names, nil
}

func (g *OSMGeocoder) fetch(req *http.Request, v any) error {
	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
