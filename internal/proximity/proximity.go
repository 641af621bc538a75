// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

// Package proximity ranks address components by their great-circle
// distance from the current device position.
package proximity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/aksellund/geoaddr/internal/geo"
	"github.com/aksellund/geoaddr/internal/geocode"
	"github.com/aksellund/geoaddr/internal/logger"
	"github.com/aksellund/geoaddr/internal/position"
)

// Entry pairs an address with its distance from the reference position.
// Entries keep pointer identity to the caller's components, so addresses
// with equal field values never collapse into one.
type Entry struct {
	Address    *geocode.AddressComponent
	DistanceKm float64
}

// Ranking is a list of entries ordered nearest-first.
type Ranking []Entry

// Ranker computes proximity rankings against the current device position.
type Ranker struct {
	positions position.Provider
	logger    *logger.Logger
}

// NewRanker returns a Ranker on top of the given position provider.
func NewRanker(positions position.Provider, log *logger.Logger) *Ranker {
	return &Ranker{
		positions: positions,
		logger:    log,
	}
}

// Rank fetches a fresh current position and returns the given addresses
// ordered by ascending distance from it, computed from each address's own
// stored coordinate. Ties keep their input order. Every call fetches its
// own position; concurrent rankings never share a fix.
func (r *Ranker) Rank(ctx context.Context, addresses []*geocode.AddressComponent) (Ranking, error) {
	reference, err := r.positions.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain current position: %w", err)
	}
	r.logger.Debug("ranking addresses against current position",
		slog.Float64("lat", reference.Lat), slog.Float64("lon", reference.Lon),
		slog.Int("addresses", len(addresses)))

	ranking := make(Ranking, 0, len(addresses))
	for _, address := range addresses {
		coord, err := addressCoordinate(address)
		if err != nil {
			return nil, err
		}
		ranking = append(ranking, Entry{
			Address:    address,
			DistanceKm: geo.DistanceKm(reference.Coordinate, coord),
		})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].DistanceKm < ranking[j].DistanceKm
	})
	return ranking, nil
}

// addressCoordinate parses the coordinate strings an AddressComponent
// carries. Components produced by the resolver always parse; anything else
// violates the contract and fails the whole ranking.
func addressCoordinate(address *geocode.AddressComponent) (geo.Coordinate, error) {
	lat, err := strconv.ParseFloat(address.Latitude, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to parse address latitude %q: %w", address.Latitude, err)
	}
	lon, err := strconv.ParseFloat(address.Longitude, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to parse address longitude %q: %w", address.Longitude, err)
	}
	return geo.Coordinate{Lat: lat, Lon: lon}, nil
}
