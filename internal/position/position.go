// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

// Package position obtains the current device position from one of the
// supported location backends.
package position

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/aksellund/geoaddr/internal/config"
	"github.com/aksellund/geoaddr/internal/geo"
	"github.com/aksellund/geoaddr/internal/http"
	"github.com/aksellund/geoaddr/internal/logger"
)

// ErrUnsupportedPlatform is returned when no location backend exists for
// the platform the process runs on.
var ErrUnsupportedPlatform = errors.New("no location backend supported on this platform")

// Provider is the contract a location backend has to fulfill. Current
// blocks until the backend delivers a fix or fails on its own terms;
// failures propagate to the caller unchanged and no retry happens here.
type Provider interface {
	Name() string
	Current(ctx context.Context) (geo.Position, error)
}

// NewPlatformProvider selects the location backend for the current platform
// based on the configuration. GeoClue is the Linux default; gpsd also
// serves FreeBSD. Every other platform is unsupported.
func NewPlatformProvider(conf *config.Config, log *logger.Logger, client *http.Client) (Provider, error) {
	backend := conf.Position.Backend
	switch runtime.GOOS {
	case "linux":
		if backend == "" {
			backend = "geoclue"
		}
	case "freebsd":
		if backend == "" {
			backend = "gpsd"
		}
		if backend == "geoclue" {
			return nil, fmt.Errorf("geoclue backend requires Linux: %w", ErrUnsupportedPlatform)
		}
	default:
		return nil, fmt.Errorf("platform %s: %w", runtime.GOOS, ErrUnsupportedPlatform)
	}

	switch backend {
	case "geoclue":
		return NewGeoClueProvider(config.DesktopID, log), nil
	case "gpsd":
		return NewGPSDProvider(conf.Position.GPSDHost, conf.Position.GPSDPort, log), nil
	case "wifi":
		return NewWifiProvider(client, log)
	default:
		return nil, fmt.Errorf("unknown position backend: %s", backend)
	}
}

// FromCoordinates wraps explicit coordinates into a Position with zeroed
// accuracy, heading and speed metadata and the current timestamp, so
// caller-supplied coordinates travel the same paths as GPS-sourced fixes.
func FromCoordinates(lat, lon float64) geo.Position {
	return geo.Position{
		Coordinate: geo.Coordinate{Lat: lat, Lon: lon},
		At:         time.Now(),
	}
}
