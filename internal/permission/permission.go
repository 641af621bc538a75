// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

// Package permission implements the location-permission workflow on top of
// the desktop permission subsystem.
package permission

import (
	"context"
	"log/slog"

	"github.com/vorlif/spreak"

	"github.com/aksellund/geoaddr/internal/logger"
	"github.com/aksellund/geoaddr/internal/notify"
)

// State represents the location-permission state as reported by the
// permission subsystem. It is queried fresh on every check, never cached.
type State int

const (
	// StateDenied means permission is currently withheld but may be prompted for.
	StateDenied State = iota
	// StateGranted means location access is allowed.
	StateGranted
	// StatePermanentlyDenied means in-app prompts are suppressed and only the
	// user can change the state via the system settings.
	StatePermanentlyDenied
)

// String satisfies the fmt.Stringer interface for the State type.
func (s State) String() string {
	switch s {
	case StateGranted:
		return "granted"
	case StatePermanentlyDenied:
		return "permanently denied"
	default:
		return "denied"
	}
}

// Client is the contract the permission subsystem has to fulfill. Failures
// at the subsystem level map to the denied state; the workflow itself never
// returns errors.
type Client interface {
	// Granted reports whether location permission is currently granted.
	Granted(ctx context.Context) bool
	// Request actively prompts the user for location permission and returns
	// the resulting state.
	Request(ctx context.Context) State
	// Status returns the current permission state without prompting.
	Status(ctx context.Context) State
	// OpenSettings asks the OS to open its location settings. Fire-and-forget.
	OpenSettings(ctx context.Context)
}

// deniedNotification is the user-facing message sent when permission stays withheld.
const deniedNotification = "Enable location permission for better experience"

// Gate drives the permission workflow in front of position retrieval.
type Gate struct {
	client    Client
	notifier  notify.Notifier
	localizer *spreak.Localizer
	logger    *logger.Logger
}

// NewGate wires a Gate from the permission client and the notification sink.
func NewGate(client Client, notifier notify.Notifier, localizer *spreak.Localizer, log *logger.Logger) *Gate {
	return &Gate{
		client:    client,
		notifier:  notifier,
		localizer: localizer,
		logger:    log,
	}
}

// Ensure returns true when location permission is granted, prompting the
// user where necessary. On a permanent denial it routes the user to the
// system settings and re-queries immediately afterwards; that re-query runs
// before the user can plausibly have acted on the settings screen, so a
// false return does not reflect a post-user-action state. Any remaining
// denial triggers a single user notification. Ensure never fails; every
// outcome is expressed through the returned bool.
func (g *Gate) Ensure(ctx context.Context) bool {
	if g.client.Granted(ctx) {
		return true
	}

	switch state := g.client.Request(ctx); state {
	case StateGranted:
		return true
	case StatePermanentlyDenied:
		g.client.OpenSettings(ctx)
		return g.client.Status(ctx) == StateGranted
	default:
		g.logger.Debug("location permission withheld", slog.String("state", state.String()))
		if err := g.notifier.Notify(ctx, "geoaddr", g.localizer.Get(deniedNotification)); err != nil {
			g.logger.Error("failed to notify user about withheld permission", logger.Err(err))
		}
		return false
	}
}

// RequestIgnored launches a permission re-request whose result is
// intentionally discarded. The request is detached from the caller's
// cancellation so it survives the originating operation.
func (g *Gate) RequestIgnored(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		_ = g.client.Request(ctx)
	}()
}
