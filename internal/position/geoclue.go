// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package position

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/aksellund/geoaddr/internal/geo"
	"github.com/aksellund/geoaddr/internal/logger"
)

const (
	geoclueName = "geoclue"

	geoclueDest          = "org.freedesktop.GeoClue2"
	geoclueManagerPath   = "/org/freedesktop/GeoClue2/Manager"
	geoclueManagerIface  = "org.freedesktop.GeoClue2.Manager"
	geoclueClientIface   = "org.freedesktop.GeoClue2.Client"
	geoclueLocationIface = "org.freedesktop.GeoClue2.Location"
	locationUpdated      = "LocationUpdated"
	propertiesSet        = "org.freedesktop.DBus.Properties.Set"

	// accuracyLevelExact requests the best accuracy GeoClue can deliver.
	accuracyLevelExact = uint32(8)

	geoclueSignalBuffer = 8
)

// GeoClueProvider obtains the current position from the GeoClue2 service on
// the system D-Bus.
type GeoClueProvider struct {
	name      string
	desktopID string
	logger    *logger.Logger
}

// NewGeoClueProvider returns a Provider backed by GeoClue2, identifying
// itself with the given desktop id.
func NewGeoClueProvider(desktopID string, log *logger.Logger) *GeoClueProvider {
	return &GeoClueProvider{
		name:      geoclueName,
		desktopID: desktopID,
		logger:    log,
	}
}

func (p *GeoClueProvider) Name() string {
	return p.name
}

// Current registers a GeoClue client at exact accuracy, starts it and
// blocks until the first LocationUpdated signal delivers a fix or the
// context is cancelled.
func (p *GeoClueProvider) Current(ctx context.Context) (pos geo.Position, err error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return pos, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close system bus: %w", closeErr))
		}
	}()

	clientPath, err := p.registerClient(ctx, conn)
	if err != nil {
		return pos, err
	}

	if err = conn.AddMatchSignalContext(ctx,
		dbus.WithMatchInterface(geoclueClientIface),
		dbus.WithMatchMember(locationUpdated),
		dbus.WithMatchObjectPath(clientPath),
	); err != nil {
		return pos, fmt.Errorf("failed to subscribe to location updates: %w", err)
	}
	sigCh := make(chan *dbus.Signal, geoclueSignalBuffer)
	conn.Signal(sigCh)
	defer conn.RemoveSignal(sigCh)

	client := conn.Object(geoclueDest, clientPath)
	if err = client.CallWithContext(ctx, geoclueClientIface+".Start", 0).Err; err != nil {
		return pos, fmt.Errorf("failed to start geoclue client: %w", err)
	}
	defer func() {
		if stopErr := client.CallWithContext(ctx, geoclueClientIface+".Stop", 0).Err; stopErr != nil {
			p.logger.Debug("failed to stop geoclue client", logger.Err(stopErr))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return pos, ctx.Err()
		case sig, ok := <-sigCh:
			if !ok {
				return pos, errors.New("signal channel closed before a location update")
			}
			if sig.Path != clientPath || len(sig.Body) < 2 {
				continue
			}
			locationPath, ok := sig.Body[1].(dbus.ObjectPath)
			if !ok {
				return pos, fmt.Errorf("unexpected location update body: %v", sig.Body)
			}
			return p.readLocation(conn, locationPath)
		}
	}
}

// registerClient obtains a GeoClue client object and configures its desktop
// id and requested accuracy.
func (p *GeoClueProvider) registerClient(ctx context.Context, conn *dbus.Conn) (dbus.ObjectPath, error) {
	var clientPath dbus.ObjectPath
	manager := conn.Object(geoclueDest, dbus.ObjectPath(geoclueManagerPath))
	if err := manager.CallWithContext(ctx, geoclueManagerIface+".GetClient", 0).Store(&clientPath); err != nil {
		return "", fmt.Errorf("failed to get geoclue client: %w", err)
	}

	client := conn.Object(geoclueDest, clientPath)
	if err := client.CallWithContext(ctx, propertiesSet, 0, geoclueClientIface, "DesktopId",
		dbus.MakeVariant(p.desktopID)).Err; err != nil {
		return "", fmt.Errorf("failed to set desktop id: %w", err)
	}
	if err := client.CallWithContext(ctx, propertiesSet, 0, geoclueClientIface, "RequestedAccuracyLevel",
		dbus.MakeVariant(accuracyLevelExact)).Err; err != nil {
		return "", fmt.Errorf("failed to set requested accuracy level: %w", err)
	}

	return clientPath, nil
}

// readLocation reads the properties of a GeoClue location object into a Position.
func (p *GeoClueProvider) readLocation(conn *dbus.Conn, path dbus.ObjectPath) (geo.Position, error) {
	location := conn.Object(geoclueDest, path)
	props := make(map[string]float64, 6)
	for _, prop := range []string{"Latitude", "Longitude", "Accuracy", "Altitude", "Heading", "Speed"} {
		variant, err := location.GetProperty(geoclueLocationIface + "." + prop)
		if err != nil {
			return geo.Position{}, fmt.Errorf("failed to get location property %s: %w", prop, err)
		}
		value, ok := variant.Value().(float64)
		if !ok {
			return geo.Position{}, fmt.Errorf("unexpected type for location property %s: %v", prop, variant.Value())
		}
		props[prop] = value
	}

	return geo.Position{
		Coordinate: geo.Coordinate{
			Lat: geo.Truncate(props["Latitude"], geo.TruncPrecision),
			Lon: geo.Truncate(props["Longitude"], geo.TruncPrecision),
		},
		Altitude:       geo.Truncate(props["Altitude"], geo.TruncPrecision),
		AccuracyMeters: props["Accuracy"],
		Heading:        props["Heading"],
		SpeedKmh:       props["Speed"] * msToKmh,
		At:             time.Now(),
	}, nil
}
