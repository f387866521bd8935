package geo

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Locator measures how far donation pickups are from an NGO.
type Locator struct {
	geocoder Geocoder
	ips      IPLocator
	logger   zerolog.Logger
}

// NewLocator wires the address geocoder and the optional IP fallback. Either
// may be nil, in which case the matching lookups report no position.
func NewLocator(geocoder Geocoder, ips IPLocator, logger zerolog.Logger) *Locator {
	return &Locator{geocoder: geocoder, ips: ips, logger: logger.With().Str("component", "locator").Logger()}
}

// Origin picks the NGO's reference point: explicit lat/lng query values win,
// otherwise the client IP's city.
func (l *Locator) Origin(lat, lng, clientIP string) (Point, bool) {
	if lat != "" || lng != "" {
		la, errLat := strconv.ParseFloat(strings.TrimSpace(lat), 64)
		ln, errLng := strconv.ParseFloat(strings.TrimSpace(lng), 64)
		p := Point{Lat: la, Lng: ln}
		if errLat == nil && errLng == nil && p.Valid() {
			return p, true
		}
	}
	if l == nil || l.ips == nil || clientIP == "" {
		return Point{}, false
	}
	p, err := l.ips.Locate(clientIP)
	if err != nil {
		return Point{}, false
	}
	return p, true
}

// Distance describes how far a pickup address is from the origin.
type Distance struct {
	Km    float64 `json:"km"`
	Label string  `json:"label"`
}

// Distances geocodes each distinct address once and returns the distance for
// those that resolved. Failures are logged and left out.
func (l *Locator) Distances(ctx context.Context, origin Point, addresses []string) map[string]Distance {
	out := make(map[string]Distance)
	if l == nil || l.geocoder == nil || !origin.Valid() {
		return out
	}
	for _, addr := range addresses {
		if _, done := out[addr]; done || strings.TrimSpace(addr) == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		p, err := l.geocoder.Geocode(ctx, addr)
		if err != nil {
			l.logger.Debug().Err(err).Str("address", addr).Msg("geocode failed")
			continue
		}
		km := DistanceKm(origin, p)
		out[addr] = Distance{Km: km, Label: FormatDistance(km)}
	}
	return out
}
