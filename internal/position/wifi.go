// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package position

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mdlayher/wifi"

	"github.com/aksellund/geoaddr/internal/geo"
	"github.com/aksellund/geoaddr/internal/http"
	"github.com/aksellund/geoaddr/internal/logger"
)

const (
	wifiName         = "wifi"
	geolocateAPI     = "https://api.beacondb.net/v1/geolocate"
	geolocateTimeout = time.Second * 5
)

// WifiProvider estimates the current position from nearby wifi access
// points via an ichnaea-compatible geolocation API.
type WifiProvider struct {
	name   string
	http   *http.Client
	wlan   *wifi.Client
	logger *logger.Logger
}

type wirelessNetwork struct {
	LastSeen       int64  `json:"age"`
	MACAddress     string `json:"macAddress"`
	SignalStrength int32  `json:"signalStrength"`
}

type geolocateRequest struct {
	ConsiderIP   bool              `json:"considerIp"`
	Accesspoints []wirelessNetwork `json:"wifiAccessPoints,omitempty"`
}

type geolocateResult struct {
	Location struct {
		Latitude  float64 `json:"lat"`
		Longitude float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

// NewWifiProvider returns a Provider that scans wifi networks and resolves
// them through the geolocation API.
func NewWifiProvider(client *http.Client, log *logger.Logger) (*WifiProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	wlan, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create wifi client: %w", err)
	}

	return &WifiProvider{
		name:   wifiName,
		http:   client,
		wlan:   wlan,
		logger: log,
	}, nil
}

func (p *WifiProvider) Name() string {
	return p.name
}

// Current scans the visible access points and asks the geolocation API for
// a position estimate. With no scannable networks the API still falls back
// to IP-based estimation.
func (p *WifiProvider) Current(ctx context.Context) (geo.Position, error) {
	aps, err := p.wifiAccessPoints()
	if err != nil {
		return geo.Position{}, fmt.Errorf("failed to scan wifi networks: %w", err)
	}

	request := geolocateRequest{
		ConsiderIP:   true,
		Accesspoints: aps,
	}
	bodyBuffer := bytes.NewBuffer(nil)
	if err = json.NewEncoder(bodyBuffer).Encode(request); err != nil {
		return geo.Position{}, fmt.Errorf("failed to encode wifi list to JSON: %w", err)
	}

	var result geolocateResult
	headers := map[string]string{"Content-Type": "application/json"}
	if _, err = p.http.PostWithTimeout(ctx, geolocateAPI, &result, bodyBuffer, headers,
		geolocateTimeout); err != nil {
		return geo.Position{}, fmt.Errorf("failed to geolocate wifi networks: %w", err)
	}

	accuracy := result.Accuracy
	if accuracy == 0 {
		accuracy = geo.AccuracyUnknown
	}
	return geo.Position{
		Coordinate: geo.Coordinate{
			Lat: geo.Truncate(result.Location.Latitude, geo.TruncPrecision),
			Lon: geo.Truncate(result.Location.Longitude, geo.TruncPrecision),
		},
		AccuracyMeters: accuracy,
		At:             time.Now(),
	}, nil
}

// wifiAccessPoints collects visible access points from all station
// interfaces, honoring SSID opt-outs.
func (p *WifiProvider) wifiAccessPoints() ([]wirelessNetwork, error) {
	var list []wirelessNetwork

	ifaces, err := p.wlan.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Type != wifi.InterfaceTypeStation {
			continue
		}
		aps, err := p.wlan.AccessPoints(iface)
		if err != nil {
			p.logger.Debug("failed to scan access points", logger.Err(err))
			continue
		}
		for _, ap := range aps {
			if ap.SSID == "" || ap.SSID[0] == '\x00' || strings.HasSuffix(ap.SSID, "_nomap") {
				continue
			}
			list = append(list, wirelessNetwork{
				SignalStrength: ap.Signal / 100,
				MACAddress:     ap.BSSID.String(),
				LastSeen:       ap.LastSeen.Milliseconds(),
			})
		}
	}

	return list, nil
}
