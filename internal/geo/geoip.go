package geo

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned when no GeoIP database is configured.
var ErrUnavailable = errors.New("geoip resolver unavailable")

// IPLocator approximates a client's position from its address.
type IPLocator interface {
	Locate(ip string) (Point, error)
}

// CityResolver looks up city coordinates in a MaxMind GeoIP2 City database.
type CityResolver struct {
	reader *geoip2.Reader
}

// NewCityResolver opens the GeoIP database at path. An empty path yields a nil
// resolver whose lookups return ErrUnavailable.
func NewCityResolver(path string) (*CityResolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &CityResolver{reader: reader}, nil
}

func (r *CityResolver) Locate(ip string) (Point, error) {
	if r == nil || r.reader == nil {
		return Point{}, ErrUnavailable
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Point{}, fmt.Errorf("geoip: invalid ip %q", ip)
	}
	record, err := r.reader.City(parsed)
	if err != nil {
		return Point{}, fmt.Errorf("geoip: lookup city: %w", err)
	}
	p := Point{Lat: record.Location.Latitude, Lng: record.Location.Longitude}
	if !p.Valid() {
		return Point{}, ErrNoMatch
	}
	return p, nil
}

func (r *CityResolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
