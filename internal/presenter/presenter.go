// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

// Package presenter renders address components, positions and proximity
// rankings as human-readable terminal output.
package presenter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nathan-osman/go-sunrise"
	"github.com/vorlif/humanize"
	"github.com/vorlif/spreak"

	"github.com/aksellund/geoaddr/internal/geo"
	"github.com/aksellund/geoaddr/internal/geocode"
	"github.com/aksellund/geoaddr/internal/proximity"
)

const distanceColumn = 12

type Presenter struct {
	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
}

// New returns a Presenter rendering with the given localizer and humanizer.
func New(localizer *spreak.Localizer, humanizer *humanize.Humanizer) *Presenter {
	return &Presenter{
		localizer: localizer,
		humanizer: humanizer,
	}
}

// FormatAddress renders an address component as aligned label/value lines,
// skipping empty fields.
func (p *Presenter) FormatAddress(component geocode.AddressComponent) string {
	builder := strings.Builder{}
	fields := []struct {
		label string
		value string
	}{
		{p.localizer.Get("Address"), component.Address1},
		{p.localizer.Get("District"), component.Address2},
		{p.localizer.Get("City"), component.City},
		{p.localizer.Get("Postal code"), component.PostalCode},
		{p.localizer.Get("State"), component.State},
		{p.localizer.Get("Country"), component.Country},
		{p.localizer.Get("Country code"), component.CountryCode},
		{p.localizer.Get("Latitude"), component.Latitude},
		{p.localizer.Get("Longitude"), component.Longitude},
	}

	width := 0
	for _, field := range fields {
		if w := runewidth.StringWidth(field.label); field.value != "" && w > width {
			width = w
		}
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		builder.WriteString(runewidth.FillRight(field.label+":", width+2))
		builder.WriteString(field.value)
		builder.WriteString("\n")
	}

	return builder.String()
}

// FormatPosition renders a position fix together with the sunrise and
// sunset times at that coordinate for the day of the fix.
func (p *Presenter) FormatPosition(pos geo.Position) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("%s: %s/%s\n", p.localizer.Get("Position"),
		floatFormat(pos.Lat, geo.TruncPrecision), floatFormat(pos.Lon, geo.TruncPrecision)))
	if pos.AccuracyMeters > 0 {
		builder.WriteString(fmt.Sprintf("%s: %s m\n", p.localizer.Get("Accuracy"),
			floatFormat(pos.AccuracyMeters, 0)))
	}

	at := pos.At
	if at.IsZero() {
		at = time.Now()
	}
	rise, set := sunrise.SunriseSunset(pos.Lat, pos.Lon, at.Year(), at.Month(), at.Day())
	builder.WriteString(fmt.Sprintf("%s: %s\n", p.localizer.Get("Sunrise"),
		p.humanizer.FormatTime(rise.Local(), humanize.TimeFormat)))
	builder.WriteString(fmt.Sprintf("%s: %s\n", p.localizer.Get("Sunset"),
		p.humanizer.FormatTime(set.Local(), humanize.TimeFormat)))

	return builder.String()
}

// FormatRanking renders a proximity ranking as a nearest-first table with
// the distance column aligned.
func (p *Presenter) FormatRanking(ranking proximity.Ranking) string {
	builder := strings.Builder{}
	for _, entry := range ranking {
		distance := floatFormat(entry.DistanceKm, 1) + " km"
		builder.WriteString(runewidth.FillLeft(distance, distanceColumn))
		builder.WriteString("  ")
		builder.WriteString(addressLine(entry.Address))
		builder.WriteString("\n")
	}
	return builder.String()
}

// addressLine condenses an address component into a single display line.
func addressLine(component *geocode.AddressComponent) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{component.Address1, component.City, component.State, component.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return component.Latitude + "/" + component.Longitude
	}
	return strings.Join(parts, ", ")
}

func floatFormat(val float64, precision int) string {
	pow := math.Pow(10, float64(precision))
	return fmt.Sprintf("%.*f", precision, math.Trunc(val*pow)/pow)
}
