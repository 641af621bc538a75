// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

// Package testhelper provides shared helpers for the package test suites.
package testhelper

import (
	"net/http"
	"os"
	"testing"
)

// IntegrationTestEnv enables tests that talk to live external services when set.
const IntegrationTestEnv = "GEOADDR_INTEGRATION_TESTS"

// MockRoundTripper satisfies http.RoundTripper with a caller-provided function,
// so HTTP-based providers can be tested against canned responses.
type MockRoundTripper struct {
	Fn func(req *http.Request) (*http.Response, error)
}

// RoundTrip implements the http.RoundTripper interface.
func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// PerformIntegrationTests skips the calling test unless integration testing
// has been explicitly enabled via the environment.
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if os.Getenv(IntegrationTestEnv) == "" {
		t.Skipf("set %s to run integration tests against live services", IntegrationTestEnv)
	}
}
