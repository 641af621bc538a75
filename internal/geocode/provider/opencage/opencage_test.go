// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package opencage

import (
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"os"
	"testing"

	"golang.org/x/text/language"

	"github.com/aksellund/geoaddr/internal/geo"
	"github.com/aksellund/geoaddr/internal/http"
	"github.com/aksellund/geoaddr/internal/logger"
	"github.com/aksellund/geoaddr/internal/testhelper"
)

const (
	berlinFile = "../../../../testdata/opencage_berlin.json"
	emptyFile  = "../../../../testdata/opencage_empty.json"
)

var berlinCoords = geo.Coordinate{Lat: 52.5129, Lon: 13.3910}

func TestNew(t *testing.T) {
	t.Run("provider name is correct", func(t *testing.T) {
		if coder := testCoder(); coder.Name() != name {
			t.Errorf("expected provider name to be %q, got %q", name, coder.Name())
		}
	})
}

func TestOpenCage_Reverse(t *testing.T) {
	t.Run("reverse geocoding returns placemarks", func(t *testing.T) {
		coder := testCoderWithFixture(t, berlinFile)
		marks, err := coder.Reverse(t.Context(), berlinCoords)
		if err != nil {
			t.Fatal(err)
		}
		if len(marks) != 1 {
			t.Fatalf("expected exactly one placemark, got %d", len(marks))
		}
		if marks[0].Locality != "Berlin" {
			t.Errorf("expected locality to be %q, got %q", "Berlin", marks[0].Locality)
		}
		if marks[0].Street != "Friedrichstrasse 67" {
			t.Errorf("expected street with house number, got %q", marks[0].Street)
		}
	})
	t.Run("unresolvable coordinates yield an empty result", func(t *testing.T) {
		coder := testCoderWithFixture(t, emptyFile)
		marks, err := coder.Reverse(t.Context(), geo.Coordinate{})
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

func TestOpenCage_Search(t *testing.T) {
	t.Run("forward geocoding returns candidates", func(t *testing.T) {
		coder := testCoderWithFixture(t, berlinFile)
		candidates, err := coder.Search(t.Context(), "Friedrichstrasse 67, Berlin")
		if err != nil {
			t.Fatal(err)
		}
		if len(candidates) != 1 {
			t.Fatalf("expected exactly one candidate, got %d", len(candidates))
		}
		if candidates[0].Coordinate.Lat != 52.5129115 {
			t.Errorf("expected candidate latitude 52.5129115, got %f", candidates[0].Coordinate.Lat)
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
}

func testCoder() *OpenCage {
	return New(http.New(logger.NewLogger(slog.LevelError, io.Discard)), language.English, "test-key")
}

func testCoderWithFixture(t *testing.T, file string) *OpenCage {
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

func testCoderWithRoundtripFunc(fn func(req *stdhttp.Request) (*stdhttp.Response, error)) *OpenCage {
	client := http.New(logger.NewLogger(slog.LevelError, io.Discard))
	client.Transport = testhelper.MockRoundTripper{Fn: fn}
	return New(client, language.English, "test-key")
}
