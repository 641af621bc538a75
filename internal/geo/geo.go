// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

// Package geo holds the coordinate and position types shared across the
// positioning, geocoding and ranking packages, together with the
// great-circle distance math.
package geo

import (
	"math"
	"time"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the spherical distance
	// approximation (error budget vs. an ellipsoidal model is ~0.5%).
	EarthRadiusKm = 6371.0

	// TruncPrecision is the decimal precision positions are truncated to
	// before they are handed to downstream consumers (~11m at the equator).
	TruncPrecision = 4
)

// Accuracy levels in meters, used by position backends to classify fixes.
const (
	AccuracyExact   = 10
	AccuracyZip     = 3000
	AccuracyCity    = 15000
	AccuracyRegion  = 100000
	AccuracyCountry = 300000
	AccuracyUnknown = 1000000
)

// Coordinate represents a geographic WGS-84 coordinate in decimal degrees.
// No range validation happens on construction; callers pass valid degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Position is a coordinate with the fix metadata a position backend reports.
type Position struct {
	Coordinate

	Altitude       float64
	AccuracyMeters float64
	Heading        float64
	SpeedKmh       float64
	At             time.Time
}

// Valid checks if the coordinate is valid according to the EPSG logic
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// DistanceKm returns the great-circle distance between two coordinates in
// kilometers, using the haversine formula on a spherical Earth. The result
// is symmetric and zero for identical coordinates. NaN inputs propagate.
func DistanceKm(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Truncate cuts a float to the given decimal precision without rounding.
func Truncate(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Trunc(x*p) / p
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
