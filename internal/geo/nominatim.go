package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoMatch is returned when the geocoder knows no place for an address.
var ErrNoMatch = errors.New("geo: address not found")

// Geocoder resolves a free-form address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Point, error)
}

// NominatimOptions configures the OpenStreetMap Nominatim client.
type NominatimOptions struct {
	BaseURL        string
	UserAgent      string
	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	RequestTimeout time.Duration
}

// Nominatim calls the /search endpoint of a Nominatim server.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     zerolog.Logger
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func NewNominatim(opts NominatimOptions) *Nominatim {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = "donationhub/1.0"
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Nominatim{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "nominatim").Logger(),
	}
}

func (n *Nominatim) Geocode(ctx context.Context, address string) (Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Point{}, ErrNoMatch
	}
	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return Point{}, fmt.Errorf("geo: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	// Nominatim's usage policy requires an identifying agent.
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("geo: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Point{}, fmt.Errorf("geo: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Point{}, fmt.Errorf("geo: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var places []nominatimPlace
	if err := json.Unmarshal(raw, &places); err != nil {
		return Point{}, fmt.Errorf("geo: decode response: %w", err)
	}
	if len(places) == 0 {
		return Point{}, ErrNoMatch
	}
	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLng != nil {
		return Point{}, fmt.Errorf("geo: malformed coordinates %q,%q", places[0].Lat, places[0].Lon)
	}
	n.logger.Debug().Str("place", places[0].DisplayName).Msg("geocoded")
	return Point{Lat: lat, Lng: lng}, nil
}
