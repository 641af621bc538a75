// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/aksellund/geoaddr/internal/config"
	"github.com/aksellund/geoaddr/internal/geocode"
	"github.com/aksellund/geoaddr/internal/geocode/provider/nominatim"
	"github.com/aksellund/geoaddr/internal/geocode/provider/opencage"
	"github.com/aksellund/geoaddr/internal/http"
	"github.com/aksellund/geoaddr/internal/logger"
	"github.com/aksellund/geoaddr/internal/notify"
)

// Resolved addresses rarely change for a given coordinate, so hits can live
// long. Misses are retried sooner since they are often transient.
const (
	cacheHitTTL  = 6 * time.Hour
	cacheMissTTL = 5 * time.Minute
)

func selectGeocodeProvider(conf *config.Config, log *logger.Logger, lang language.Tag) (geocode.Geocoder, error) {
	var geocoder geocode.Geocoder

	switch strings.ToLower(conf.GeoCoder.Provider) {
	case "nominatim":
		geocoder = geocode.NewCachedGeocoder(nominatim.New(http.New(log), lang), cacheHitTTL, cacheMissTTL)
	case "opencage":
		if conf.GeoCoder.APIKey == "" {
			return nil, fmt.Errorf("opencage geocoder requires an API key")
		}
		geocoder = geocode.NewCachedGeocoder(opencage.New(http.New(log), lang, conf.GeoCoder.APIKey),
			cacheHitTTL, cacheMissTTL)
	default:
		return nil, fmt.Errorf("unsupported geocoder type: %s", conf.GeoCoder.Provider)
	}

	return geocoder, nil
}

func selectNotifier(conf *config.Config) notify.Notifier {
	if conf.Permission.DisableNotifications {
		return notify.NewNoopNotifier()
	}
	return notify.NewDBusNotifier()
}
