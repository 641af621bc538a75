// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/aksellund/geoaddr/internal/geo"
)

// coordPrecision is the precision used to quantize coordinates (0.01 degrees ≈ 1.1 km)
const coordPrecision = 1e-2

type reverseKey struct {
	Provider string
	LatQ     int32
	LonQ     int32
}

type reverseEntry struct {
	Placemarks []Placemark
	Expiry     time.Time
}

type searchEntry struct {
	Candidates []Candidate
	Expiry     time.Time
}

// CachedGeocoder decorates a Geocoder with TTL caching in both directions.
// Empty results are cached too, with their own (typically shorter) TTL.
type CachedGeocoder struct {
	coder   Geocoder
	ttlHit  time.Duration
	ttlMiss time.Duration

	mu       sync.RWMutex
	reverses map[reverseKey]reverseEntry
	searches map[string]searchEntry
}

// NewCachedGeocoder wraps the given Geocoder with a cache using the given
// hit and miss TTLs.
func NewCachedGeocoder(coder Geocoder, ttlHit, ttlMiss time.Duration) *CachedGeocoder {
	return &CachedGeocoder{
		coder:    coder,
		ttlHit:   ttlHit,
		ttlMiss:  ttlMiss,
		reverses: make(map[reverseKey]reverseEntry),
		searches: make(map[string]searchEntry),
	}
}

func (c *CachedGeocoder) Name() string {
	return "geocoder cache using " + c.coder.Name()
}

// Reverse serves reverse lookups from the cache, keyed by quantized
// coordinates, and falls through to the wrapped Geocoder on miss.
func (c *CachedGeocoder) Reverse(ctx context.Context, coord geo.Coordinate) ([]Placemark, error) {
	key := newReverseKey(c.coder.Name(), coord)

	c.mu.RLock()
	entry, ok := c.reverses[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.Expiry) {
		return entry.Placemarks, nil
	}

	marks, err := c.coder.Reverse(ctx, coord)
	if err != nil {
		return marks, err
	}

	c.mu.Lock()
	c.reverses[key] = reverseEntry{
		Placemarks: marks,
		Expiry:     time.Now().Add(c.ttl(len(marks))),
	}
	c.mu.Unlock()

	return marks, nil
}

// Search serves forward lookups from the cache, keyed by the normalized
// query, and falls through to the wrapped Geocoder on miss.
func (c *CachedGeocoder) Search(ctx context.Context, address string) ([]Candidate, error) {
	key := strings.ToLower(strings.TrimSpace(address))

	c.mu.RLock()
	entry, ok := c.searches[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.Expiry) {
		return entry.Candidates, nil
	}

	candidates, err := c.coder.Search(ctx, address)
	if err != nil {
		return candidates, err
	}

	c.mu.Lock()
	c.searches[key] = searchEntry{
		Candidates: candidates,
		Expiry:     time.Now().Add(c.ttl(len(candidates))),
	}
	c.mu.Unlock()

	return candidates, nil
}

func (c *CachedGeocoder) ttl(results int) time.Duration {
	if results == 0 {
		return c.ttlMiss
	}
	return c.ttlHit
}

func quantizeCoord(val float64) int32 {
	return int32(math.Round(val / coordPrecision))
}

func newReverseKey(provider string, coord geo.Coordinate) reverseKey {
	return reverseKey{
		Provider: provider,
		LatQ:     quantizeCoord(coord.Lat),
		LonQ:     quantizeCoord(coord.Lon),
	}
}
