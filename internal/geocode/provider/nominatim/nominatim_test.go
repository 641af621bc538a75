// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package nominatim

import (
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"os"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/aksellund/geoaddr/internal/geo"
	"github.com/aksellund/geoaddr/internal/http"
	"github.com/aksellund/geoaddr/internal/logger"
	"github.com/aksellund/geoaddr/internal/testhelper"
)

const (
	berlinFile     = "../../../../testdata/nominatim_berlin.json"
	berlinExpected = "Berlin"

	townFile     = "../../../../testdata/nominatim_otley.json"
	townExpected = "Otley"

	notFoundFile  = "../../../../testdata/nominatim_notfound.json"
	searchFile    = "../../../../testdata/nominatim_mountainview_search.json"
	emptyFile     = "../../../../testdata/nominatim_search_empty.json"
	brokenLatFile = "../../../../testdata/nominatim_search_brokenlat.json"
)

var berlinCoords = geo.Coordinate{Lat: 52.5129, Lon: 13.3910}

func TestNew(t *testing.T) {
	t.Run("creating a new provider succeeds", func(t *testing.T) {
		coder := testCoder()
		if coder == nil {
			t.Fatal("expected a non-nil geocoder")
		}
	})
	t.Run("provider name is correct", func(t *testing.T) {
		if coder := testCoder(); coder.Name() != name {
			t.Errorf("expected provider name to be %q, got %q", name, coder.Name())
		}
	})
}

func TestNominatim_Reverse(t *testing.T) {
	t.Run("reverse geocoding returns a single placemark", func(t *testing.T) {
		coder := testCoderWithFixture(t, berlinFile)
		marks, err := coder.Reverse(t.Context(), berlinCoords)
		if err != nil {
			t.Fatal(err)
		}
		if len(marks) != 1 {
			t.Fatalf("expected exactly one placemark, got %d", len(marks))
		}
		if marks[0].Locality != berlinExpected {
			t.Errorf("expected locality to be %q, got %q", berlinExpected, marks[0].Locality)
		}
		if marks[0].Street != "Friedrichstrasse 67" {
			t.Errorf("expected street with house number, got %q", marks[0].Street)
		}
		if marks[0].CountryCode != "de" {
			t.Errorf("expected country code to be %q, got %q", "de", marks[0].CountryCode)
		}
	})
	t.Run("reverse geocoding with town set should return the correct locality", func(t *testing.T) {
		coder := testCoderWithFixture(t, townFile)
		marks, err := coder.Reverse(t.Context(), geo.Coordinate{Lat: 53.90712, Lon: -1.69404})
		if err != nil {
			t.Fatal(err)
		}
		if len(marks) != 1 {
			t.Fatalf("expected exactly one placemark, got %d", len(marks))
		}
		if marks[0].Locality != townExpected {
			t.Errorf("expected locality to be %q, got %q", townExpected, marks[0].Locality)
		}
	})
	t.Run("unresolvable coordinates yield an empty result", func(t *testing.T) {
		coder := testCoderWithFixture(t, notFoundFile)
		marks, err := coder.Reverse(t.Context(), geo.Coordinate{Lat: 0, Lon: 0})
		if err != nil {
			t.Fatal(err)
		}
		if len(marks) != 0 {
			t.Errorf("expected no placemarks, got %d", len(marks))
		}
	})
	t.Run("reverse geocoding fails on transport error", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		})
		if _, err := coder.Reverse(t.Context(), berlinCoords); err == nil {
			t.Fatal("expected API request to fail")
		}
	})
}

func TestNominatim_Search(t *testing.T) {
	t.Run("forward geocoding returns candidates", func(t *testing.T) {
		coder := testCoderWithFixture(t, searchFile)
		candidates, err := coder.Search(t.Context(), "1600 Amphitheatre Parkway, Mountain View, CA")
		if err != nil {
			t.Fatal(err)
		}
		if len(candidates) != 1 {
			t.Fatalf("expected exactly one candidate, got %d", len(candidates))
		}
		if candidates[0].Coordinate.Lat != 37.4223878 {
			t.Errorf("expected candidate latitude 37.4223878, got %f", candidates[0].Coordinate.Lat)
		}
		if !strings.Contains(candidates[0].DisplayName, "Mountain View") {
			t.Errorf("expected display name to mention Mountain View, got %q", candidates[0].DisplayName)
		}
	})
	t.Run("unknown address yields an empty result", func(t *testing.T) {
		coder := testCoderWithFixture(t, emptyFile)
		candidates, err := coder.Search(t.Context(), "nowhere at all")
		if err != nil {
			t.Fatal(err)
		}
		if len(candidates) != 0 {
			t.Errorf("expected no candidates, got %d", len(candidates))
		}
	})
	t.Run("forward geocoding fails on unparseable latitude", func(t *testing.T) {
		coder := testCoderWithFixture(t, brokenLatFile)
		if _, err := coder.Search(t.Context(), "broken"); err == nil {
			t.Fatal("expected unparseable latitude to fail")
		}
	})
}

func TestNominatim_Live(t *testing.T) {
	t.Run("live reverse geocoding against the public API", func(t *testing.T) {
		testhelper.PerformIntegrationTests(t)
		coder := testCoder()
		marks, err := coder.Reverse(t.Context(), berlinCoords)
		if err != nil {
			t.Fatal(err)
		}
		if len(marks) == 0 {
			t.Fatal("expected at least one placemark from the live API")
		}
	})
}

func testCoder() *Nominatim {
	return New(http.New(logger.NewLogger(slog.LevelError, io.Discard)), language.English)
}

func testCoderWithFixture(t *testing.T, file string) *Nominatim {
	t.Helper()
	return testCoderWithRoundtripFunc(func(req *stdhttp.Request) (*stdhttp.Response, error) {
		data, err := os.Open(file)
		if err != nil {
			t.Fatalf("failed to open JSON response file: %s", err)
		}

		return &stdhttp.Response{
			StatusCode: 200,
			Body:       data,
			Header:     make(stdhttp.Header),
		}, nil
	})
}

func testCoderWithRoundtripFunc(fn func(req *stdhttp.Request) (*stdhttp.Response, error)) *Nominatim {
	client := http.New(logger.NewLogger(slog.LevelError, io.Discard))
	client.Transport = testhelper.MockRoundTripper{Fn: fn}
	return New(client, language.English)
}
