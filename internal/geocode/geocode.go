// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

// Package geocode turns positions into structured addresses and address
// strings into positions, through external geocoding services.
package geocode

import (
	"context"
	"errors"

	"github.com/aksellund/geoaddr/internal/geo"
)

var (
	// ErrNoPlacemark is returned when reverse geocoding yields zero placemarks.
	ErrNoPlacemark = errors.New("no placemark found for coordinates")
	// ErrNoLocation is returned when forward geocoding yields zero candidates.
	ErrNoLocation = errors.New("no location found for address")
)

// Placemark is a structured address record a reverse-geocoding service
// returns for a coordinate. Absent fields stay empty.
type Placemark struct {
	Street             string
	Thoroughfare       string
	Locality           string
	AdministrativeArea string
	Postcode           string
	Country            string
	CountryCode        string
	DisplayName        string
}

// Candidate is a forward-geocoded location candidate for an address string.
type Candidate struct {
	Coordinate  geo.Coordinate
	DisplayName string
}

// Geocoder is the contract a geocoding service has to fulfill. An empty
// result slice is a legitimate "not found" answer, not an error.
type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, coord geo.Coordinate) ([]Placemark, error)
	Search(ctx context.Context, address string) ([]Candidate, error)
}

// AddressComponent is the denormalized address snapshot handed to callers:
// the geocoded address fields plus the coordinate that produced them,
// stored as decimal-degree strings. All fields are always present but may
// individually be empty.
type AddressComponent struct {
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	Country     string `json:"country"`
	State       string `json:"state"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
	CountryCode string `json:"country_code"`
}
