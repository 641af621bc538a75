// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package opencage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/text/language"

	"github.com/aksellund/geoaddr/internal/geo"
	"github.com/aksellund/geoaddr/internal/geocode"
	"github.com/aksellund/geoaddr/internal/http"
)

const (
	APIEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	APITimeout  = time.Second * 10
	name        = "opencage"
)

type OpenCage struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
}

type Result struct {
	Components  Components `json:"components"`
	DisplayName string     `json:"formatted"`
	Geometry    Geometry   `json:"geometry"`
}

type Components struct {
	NormalizedCity string `json:"_normalized_city"`
	City           string `json:"city"`
	CityDistrict   string `json:"city_district"`
	Country        string `json:"country"`
	CountryCode    string `json:"country_code"`
	HouseNumber    string `json:"house_number"`
	Municipality   string `json:"municipality"`
	Postcode       string `json:"postcode"`
	Road           string `json:"road"`
	State          string `json:"state"`
	Suburb         string `json:"suburb"`
	Town           string `json:"town"`
	Village        string `json:"village"`
}

type Geometry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

func New(client *http.Client, lang language.Tag, apikey string) *OpenCage {
	return &OpenCage{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}
}

func (o *OpenCage) Name() string {
	return name
}

// Reverse resolves a coordinate through the OpenCage API.
func (o *OpenCage) Reverse(ctx context.Context, coord geo.Coordinate) ([]geocode.Placemark, error) {
	response, err := o.query(ctx, fmt.Sprintf("%f,%f", coord.Lat, coord.Lon))
	if err != nil {
		return nil, err
	}

	marks := make([]geocode.Placemark, 0, len(response.Results))
	for _, result := range response.Results {
		marks = append(marks, placemarkFromResult(result))
	}
	return marks, nil
}

// Search resolves a free-text address through the OpenCage API.
func (o *OpenCage) Search(ctx context.Context, address string) ([]geocode.Candidate, error) {
	response, err := o.query(ctx, address)
	if err != nil {
		return nil, err
	}

	candidates := make([]geocode.Candidate, 0, len(response.Results))
	for _, result := range response.Results {
		candidates = append(candidates, geocode.Candidate{
			Coordinate:  geo.Coordinate{Lat: result.Geometry.Lat, Lon: result.Geometry.Lon},
			DisplayName: result.DisplayName,
		})
	}
	return candidates, nil
}

// query runs a single OpenCage lookup; forward and reverse share the same
// endpoint and only differ in the q parameter.
func (o *OpenCage) query(ctx context.Context, q string) (Response, error) {
	var response Response

	query := url.Values{}
	query.Set("key", o.apikey)
	query.Set("q", q)
	query.Set("no_annotations", "1")
	query.Set("no_record", "1")
	query.Set("language", o.lang.String())

	if _, err := o.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, APITimeout); err != nil {
		return response, fmt.Errorf("failed to retrieve address details from OpenCage API: %w", err)
	}
	return response, nil
}

func placemarkFromResult(result Result) geocode.Placemark {
	components := result.Components
	mark := geocode.Placemark{
		Street:             components.Road,
		Thoroughfare:       components.Suburb,
		Locality:           components.NormalizedCity,
		AdministrativeArea: components.State,
		Postcode:           components.Postcode,
		Country:            components.Country,
		CountryCode:        components.CountryCode,
		DisplayName:        result.DisplayName,
	}
	if components.HouseNumber != "" && mark.Street != "" {
		mark.Street = components.Road + " " + components.HouseNumber
	}
	if mark.Locality == "" && components.City != "" {
		mark.Locality = components.City
	}
	if mark.Locality == "" && components.Town != "" {
		mark.Locality = components.Town
	}
	if mark.Locality == "" && components.Village != "" {
		mark.Locality = components.Village
	}
	return mark
}
