// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"errors"
	"testing"
	"time"

	"github.com/aksellund/geoaddr/internal/geo"
)

const (
	testHitTTL  = time.Minute
	testMissTTL = time.Millisecond
)

func TestCachedGeocoder_Reverse(t *testing.T) {
	t.Run("nearby coordinates are served from the cache", func(t *testing.T) {
		stub := &stubGeocoder{placemarks: []Placemark{mountainView}}
		cached := NewCachedGeocoder(stub, testHitTTL, testMissTTL)

		if _, err := cached.Reverse(t.Context(), geo.Coordinate{Lat: 37.4223, Lon: -122.0841}); err != nil {
			t.Fatal(err)
		}
		// ~10m away, quantizes to the same cache key
		if _, err := cached.Reverse(t.Context(), geo.Coordinate{Lat: 37.4224, Lon: -122.0842}); err != nil {
			t.Fatal(err)
		}
		if stub.reverseCalls != 1 {
			t.Errorf("expected one upstream lookup, got %d", stub.reverseCalls)
		}
	})
	t.Run("distant coordinates miss the cache", func(t *testing.T) {
		stub := &stubGeocoder{placemarks: []Placemark{mountainView}}
		cached := NewCachedGeocoder(stub, testHitTTL, testMissTTL)

		if _, err := cached.Reverse(t.Context(), geo.Coordinate{Lat: 37.42, Lon: -122.08}); err != nil {
			t.Fatal(err)
		}
		if _, err := cached.Reverse(t.Context(), geo.Coordinate{Lat: 52.51, Lon: 13.39}); err != nil {
			t.Fatal(err)
		}
		if stub.reverseCalls != 2 {
			t.Errorf("expected two upstream lookups, got %d", stub.reverseCalls)
		}
	})
	t.Run("empty results expire with the miss TTL", func(t *testing.T) {
		stub := &stubGeocoder{}
		cached := NewCachedGeocoder(stub, testHitTTL, testMissTTL)

		if _, err := cached.Reverse(t.Context(), geo.Coordinate{}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(testMissTTL * 10)
		if _, err := cached.Reverse(t.Context(), geo.Coordinate{}); err != nil {
			t.Fatal(err)
		}
		if stub.reverseCalls != 2 {
			t.Errorf("expected expired miss to hit upstream again, got %d calls", stub.reverseCalls)
		}
	})
	t.Run("upstream failures are not cached", func(t *testing.T) {
		stub := &stubGeocoder{reverseErr: errors.New("intentionally failing")}
		cached := NewCachedGeocoder(stub, testHitTTL, testMissTTL)

		if _, err := cached.Reverse(t.Context(), geo.Coordinate{}); err == nil {
			t.Fatal("expected upstream failure to propagate")
		}
		if _, err := cached.Reverse(t.Context(), geo.Coordinate{}); err == nil {
			t.Fatal("expected upstream failure to propagate")
		}
		if stub.reverseCalls != 2 {
			t.Errorf("expected failures to bypass the cache, got %d calls", stub.reverseCalls)
		}
	})
}

func TestCachedGeocoder_Search(t *testing.T) {
	t.Run("repeated queries are served from the cache", func(t *testing.T) {
		stub := &stubGeocoder{candidates: []Candidate{{DisplayName: "somewhere"}}}
		cached := NewCachedGeocoder(stub, testHitTTL, testMissTTL)

		if _, err := cached.Search(t.Context(), "Friedrichstrasse 67, Berlin"); err != nil {
			t.Fatal(err)
		}
		// query normalization: same address, different spacing and case
		if _, err := cached.Search(t.Context(), "  friedrichstrasse 67, berlin "); err != nil {
			t.Fatal(err)
		}
		if stub.searchCalls != 1 {
			t.Errorf("expected one upstream lookup, got %d", stub.searchCalls)
		}
	})
	t.Run("different queries miss the cache", func(t *testing.T) {
		stub := &stubGeocoder{candidates: []Candidate{{DisplayName: "somewhere"}}}
		cached := NewCachedGeocoder(stub, testHitTTL, testMissTTL)

		if _, err := cached.Search(t.Context(), "Berlin"); err != nil {
			t.Fatal(err)
		}
		if _, err := cached.Search(t.Context(), "Hamburg"); err != nil {
			t.Fatal(err)
		}
		if stub.searchCalls != 2 {
			t.Errorf("expected two upstream lookups, got %d", stub.searchCalls)
		}
	})
}

func TestCachedGeocoder_Name(t *testing.T) {
	t.Run("name includes the wrapped provider", func(t *testing.T) {
		cached := NewCachedGeocoder(&stubGeocoder{}, testHitTTL, testMissTTL)
		if cached.Name() != "geocoder cache using stub" {
			t.Errorf("unexpected cache name: %q", cached.Name())
		}
	})
}
