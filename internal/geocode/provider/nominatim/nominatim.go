// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package nominatim

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/aksellund/geoaddr/internal/geo"
	"github.com/aksellund/geoaddr/internal/geocode"
	"github.com/aksellund/geoaddr/internal/http"
)

const (
	APISearchEndpoint  = "https://nominatim.openstreetmap.org/search"
	APIReverseEndpoint = "https://nominatim.openstreetmap.org/reverse"
	APITimeout         = time.Second * 10
	name               = "osm-nominatim"
)

type Nominatim struct {
	http *http.Client
	lang language.Tag
}

type ReverseResult struct {
	APILat      string  `json:"lat"`
	APILon      string  `json:"lon"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
}

type SearchResult struct {
	APILat      string `json:"lat"`
	APILon      string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type Address struct {
	HouseNumber  string `json:"house_number"`
	Road         string `json:"road"`
	Suburb       string `json:"suburb"`
	Municipality string `json:"municipality"`
	CityDistrict string `json:"city_district"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	State        string `json:"state"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country"`
	CountryCode  string `json:"country_code"`
}

func New(client *http.Client, lang language.Tag) *Nominatim {
	return &Nominatim{
		lang: lang,
		http: client,
	}
}

func (n *Nominatim) Name() string {
	return name
}

// Reverse resolves a coordinate through the Nominatim reverse API. The API
// returns at most one placemark; a response carrying an error field counts
// as not found.
func (n *Nominatim) Reverse(ctx context.Context, coord geo.Coordinate) ([]geocode.Placemark, error) {
	var result struct {
		ReverseResult
		APIError string `json:"error"`
	}

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", fmt.Sprintf("%f", coord.Lat))
	query.Set("lon", fmt.Sprintf("%f", coord.Lon))
	query.Set("accept-language", n.lang.String())

	if _, err := n.http.GetWithTimeout(ctx, APIReverseEndpoint, &result, query, nil, APITimeout); err != nil {
		return nil, fmt.Errorf("failed to fetch reverse address details from Nominatim API: %w", err)
	}
	if result.APIError != "" {
		return nil, nil
	}

	return []geocode.Placemark{placemarkFromResult(result.ReverseResult)}, nil
}

// Search resolves a free-text address through the Nominatim search API.
func (n *Nominatim) Search(ctx context.Context, address string) ([]geocode.Candidate, error) {
	var results []SearchResult

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("q", address)
	query.Set("accept-language", n.lang.String())

	if _, err := n.http.GetWithTimeout(ctx, APISearchEndpoint, &results, query, nil, APITimeout); err != nil {
		return nil, fmt.Errorf("failed to fetch address details from Nominatim API: %w", err)
	}

	candidates := make([]geocode.Candidate, 0, len(results))
	for _, result := range results {
		lat, err := strconv.ParseFloat(result.APILat, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse latitude from Nominatim API response: %w", err)
		}
		lon, err := strconv.ParseFloat(result.APILon, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse longitude from Nominatim API response: %w", err)
		}
		candidates = append(candidates, geocode.Candidate{
			Coordinate:  geo.Coordinate{Lat: lat, Lon: lon},
			DisplayName: result.DisplayName,
		})
	}

	return candidates, nil
}

// placemarkFromResult maps the Nominatim address onto a Placemark. Town and
// village serve as locality fallbacks for places without a city field.
func placemarkFromResult(result ReverseResult) geocode.Placemark {
	mark := geocode.Placemark{
		Street:             result.Address.Road,
		Thoroughfare:       result.Address.Suburb,
		Locality:           result.Address.City,
		AdministrativeArea: result.Address.State,
		Postcode:           result.Address.Postcode,
		Country:            result.Address.Country,
		CountryCode:        result.Address.CountryCode,
		DisplayName:        result.DisplayName,
	}
	if result.Address.HouseNumber != "" && mark.Street != "" {
		mark.Street = result.Address.Road + " " + result.Address.HouseNumber
	}
	if mark.Locality == "" && result.Address.Town != "" {
		mark.Locality = result.Address.Town
	}
	if mark.Locality == "" && result.Address.Village != "" {
		mark.Locality = result.Address.Village
	}
	return mark
}
