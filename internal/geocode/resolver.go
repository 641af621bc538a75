// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aksellund/geoaddr/internal/geo"
	"github.com/aksellund/geoaddr/internal/logger"
)

// Resolver converts between positions and address components using a
// Geocoder. It is stateless and safe for concurrent use.
type Resolver struct {
	coder  Geocoder
	logger *logger.Logger
}

// NewResolver returns a Resolver on top of the given Geocoder.
func NewResolver(coder Geocoder, log *logger.Logger) *Resolver {
	return &Resolver{
		coder:  coder,
		logger: log,
	}
}

// FromPosition reverse-geocodes a position into an AddressComponent. The
// first returned placemark is authoritative; an empty result maps to
// ErrNoPlacemark. The component carries the input coordinate, not whatever
// coordinate the placemark reports.
func (r *Resolver) FromPosition(ctx context.Context, pos geo.Position) (AddressComponent, error) {
	marks, err := r.coder.Reverse(ctx, pos.Coordinate)
	if err != nil {
		return AddressComponent{}, fmt.Errorf("failed to reverse geocode position: %w", err)
	}
	if len(marks) == 0 {
		return AddressComponent{}, fmt.Errorf("%w: %f/%f", ErrNoPlacemark, pos.Lat, pos.Lon)
	}

	r.logger.Debug("reverse geocoded position", slog.Float64("lat", pos.Lat),
		slog.Float64("lon", pos.Lon), slog.String("provider", r.coder.Name()))
	return componentFromPlacemark(marks[0], pos.Coordinate), nil
}

// FromAddress forward-geocodes a free-text address into an
// AddressComponent. The first candidate is authoritative; its coordinate
// is reverse-geocoded again for structured placemark detail, and the
// resulting component carries the forward-geocoded coordinate.
func (r *Resolver) FromAddress(ctx context.Context, address string) (AddressComponent, error) {
	candidates, err := r.coder.Search(ctx, address)
	if err != nil {
		return AddressComponent{}, fmt.Errorf("failed to forward geocode address: %w", err)
	}
	if len(candidates) == 0 {
		return AddressComponent{}, fmt.Errorf("%w: %q", ErrNoLocation, address)
	}

	coord := candidates[0].Coordinate
	marks, err := r.coder.Reverse(ctx, coord)
	if err != nil {
		return AddressComponent{}, fmt.Errorf("failed to reverse geocode candidate location: %w", err)
	}
	if len(marks) == 0 {
		return AddressComponent{}, fmt.Errorf("%w: %f/%f", ErrNoPlacemark, coord.Lat, coord.Lon)
	}

	r.logger.Debug("forward geocoded address", slog.String("address", address),
		slog.String("provider", r.coder.Name()))
	return componentFromPlacemark(marks[0], coord), nil
}

// componentFromPlacemark maps placemark fields onto the component. Absent
// placemark fields yield empty strings; the coordinate strings always
// parse back to the floats that produced them.
func componentFromPlacemark(mark Placemark, coord geo.Coordinate) AddressComponent {
	return AddressComponent{
		Address1:    mark.Street,
		Address2:    mark.Thoroughfare,
		Country:     mark.Country,
		State:       mark.AdministrativeArea,
		City:        mark.Locality,
		PostalCode:  mark.Postcode,
		Latitude:    formatCoord(coord.Lat),
		Longitude:   formatCoord(coord.Lon),
		CountryCode: mark.CountryCode,
	}
}

func formatCoord(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
