package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"
	"golang.org/x/text/cases"
)

var geocodeBucket = []byte("geocode")

// Cache persists geocoding results in a bbolt file so repeat addresses never
// hit the remote service.
type Cache struct {
	db *bbolt.DB
}

type cacheEntry struct {
	Point    Point     `json:"point"`
	StoredAt time.Time `json:"stored_at"`
}

func OpenCache(path string) (*Cache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("geo: open cache: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(geocodeBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached point for address.
func (c *Cache) Get(address string) (Point, bool, error) {
	var (
		entry cacheEntry
		found bool
	)
	err := c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(geocodeBucket).Get(cacheKey(address))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &entry)
	})
	if err != nil || !found {
		return Point{}, false, err
	}
	return entry.Point, true, nil
}

func (c *Cache) Put(address string, p Point) error {
	data, err := json.Marshal(cacheEntry{Point: p, StoredAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(geocodeBucket).Put(cacheKey(address), data)
	})
}

func cacheKey(address string) []byte {
	folded := cases.Fold().String(strings.Join(strings.Fields(address), " "))
	return []byte(folded)
}

// CachedGeocoder consults the cache before the wrapped geocoder and stores
// every successful lookup.
type CachedGeocoder struct {
	next   Geocoder
	cache  *Cache
	logger zerolog.Logger
}

func NewCachedGeocoder(next Geocoder, cache *Cache, logger zerolog.Logger) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: cache, logger: logger.With().Str("component", "geocode_cache").Logger()}
}

func (g *CachedGeocoder) Geocode(ctx context.Context, address string) (Point, error) {
	p, ok, err := g.cache.Get(address)
	if err != nil {
		g.logger.Warn().Err(err).Msg("cache read failed")
	}
	if ok {
		return p, nil
	}
	p, err = g.next.Geocode(ctx, address)
	if err != nil {
		return Point{}, err
	}
	if err := g.cache.Put(address, p); err != nil {
		g.logger.Warn().Err(err).Msg("cache write failed")
	}
	return p, nil
}
