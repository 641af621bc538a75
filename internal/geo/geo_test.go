// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package geo

import (
	"math"
	"testing"
)

const floatEpsilon = 1e-9

var (
	newYork = Coordinate{Lat: 40.7128, Lon: -74.0060}
	london  = Coordinate{Lat: 51.5074, Lon: -0.1278}
	berlin  = Coordinate{Lat: 52.5129, Lon: 13.3910}
)

func TestDistanceKm(t *testing.T) {
	t.Run("distance between New York and London is roughly 5570km", func(t *testing.T) {
		got := DistanceKm(newYork, london)
		if math.Abs(got-5570) > 10 {
			t.Errorf("expected distance of roughly 5570km, got %f", got)
		}
	})
	t.Run("distance is symmetric", func(t *testing.T) {
		tests := []struct {
			name string
			a, b Coordinate
		}{
			{"new york/london", newYork, london},
			{"london/berlin", london, berlin},
			{"across the antimeridian", Coordinate{Lat: 10, Lon: 179.9}, Coordinate{Lat: 10, Lon: -179.9}},
			{"poles", Coordinate{Lat: 90}, Coordinate{Lat: -90}},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				if diff := math.Abs(DistanceKm(tc.a, tc.b) - DistanceKm(tc.b, tc.a)); diff > floatEpsilon {
					t.Errorf("expected symmetric distances, got difference of %f", diff)
				}
			})
		}
	})
	t.Run("distance to itself is zero", func(t *testing.T) {
		if got := DistanceKm(berlin, berlin); got > floatEpsilon {
			t.Errorf("expected zero distance, got %f", got)
		}
	})
	t.Run("NaN input propagates", func(t *testing.T) {
		if got := DistanceKm(Coordinate{Lat: math.NaN()}, berlin); !math.IsNaN(got) {
			t.Errorf("expected NaN result, got %f", got)
		}
	})
}

func TestCoordinate_Valid(t *testing.T) {
	tests := []struct {
		name  string
		coord Coordinate
		want  bool
	}{
		{"berlin is valid", berlin, true},
		{"latitude out of range", Coordinate{Lat: 91, Lon: 0}, false},
		{"longitude out of range", Coordinate{Lat: 0, Lon: -181}, false},
		{"boundaries are valid", Coordinate{Lat: -90, Lon: 180}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.coord.Valid(); got != tc.want {
				t.Errorf("expected validity to be %t, got %t", tc.want, got)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		precision int
		want      float64
	}{
		{"positive value", 52.51291234, 4, 52.5129},
		{"negative value", -74.00609876, 4, -74.0060},
		{"zero precision", 13.391, 0, 13},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Truncate(tc.value, tc.precision); math.Abs(got-tc.want) > floatEpsilon {
				t.Errorf("expected %f, got %f", tc.want, got)
			}
		})
	}
}
