// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package position

import (
	"context"
	"fmt"
	"net"

	"github.com/stratoberry/go-gpsd"

	"github.com/aksellund/geoaddr/internal/geo"
	"github.com/aksellund/geoaddr/internal/logger"
)

const (
	gpsdName = "gpsd"

	// Accuracy fallbacks when gpsd reports no error estimates.
	fallbackAccuracy3DFix = 10 // ~10 m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25 // worse than 3D, but still accurate enough

	msToKmh = 3.6
)

// GPSDProvider obtains the current position from a gpsd daemon.
type GPSDProvider struct {
	name   string
	addr   string
	logger *logger.Logger
}

// NewGPSDProvider returns a Provider talking to gpsd at the given host and port.
func NewGPSDProvider(host, port string, log *logger.Logger) *GPSDProvider {
	return &GPSDProvider{
		name:   gpsdName,
		addr:   net.JoinHostPort(host, port),
		logger: log,
	}
}

func (p *GPSDProvider) Name() string {
	return p.name
}

// Current connects to gpsd and blocks until the first usable TPV report
// arrives, the watch ends, or the context is cancelled.
func (p *GPSDProvider) Current(ctx context.Context) (geo.Position, error) {
	session, err := gpsd.Dial(p.addr)
	if err != nil {
		return geo.Position{}, fmt.Errorf("failed to connect to gpsd at %q: %w", p.addr, err)
	}

	fixChan := make(chan geo.Position, 1)
	session.AddFilter("TPV", func(r interface{}) {
		tpv, ok := r.(*gpsd.TPVReport)
		if !ok {
			return
		}
		// Need at least a 2D fix
		if tpv.Mode < gpsd.Mode2D {
			return
		}
		select {
		case fixChan <- p.positionFromReport(tpv):
		default:
		}
	})

	// Watch() returns a channel that closes when the watch ends, e.g. on a
	// lost connection. go-gpsd has no Close(); the connection is torn down
	// with the process.
	done := session.Watch()

	select {
	case <-ctx.Done():
		return geo.Position{}, ctx.Err()
	case <-done:
		return geo.Position{}, fmt.Errorf("gpsd connection at %q ended before a fix was obtained", p.addr)
	case fix := <-fixChan:
		return fix, nil
	}
}

// positionFromReport converts a TPV report into a Position. Missing error
// estimates fall back to typical consumer GPS accuracy per fix mode.
func (p *GPSDProvider) positionFromReport(tpv *gpsd.TPVReport) geo.Position {
	accuracy := max(tpv.Epx, tpv.Epy)
	if accuracy == 0 {
		accuracy = fallbackAccuracy2DFix
		if tpv.Mode >= gpsd.Mode3D {
			accuracy = fallbackAccuracy3DFix
		}
	}

	return geo.Position{
		Coordinate: geo.Coordinate{
			Lat: geo.Truncate(tpv.Lat, geo.TruncPrecision),
			Lon: geo.Truncate(tpv.Lon, geo.TruncPrecision),
		},
		Altitude:       geo.Truncate(tpv.Alt, geo.TruncPrecision),
		AccuracyMeters: accuracy,
		Heading:        tpv.Track,
		SpeedKmh:       tpv.Speed * msToKmh,
		At:             tpv.Time,
	}
}
