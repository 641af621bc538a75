// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package permission

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/godbus/dbus/v5"

	"github.com/aksellund/geoaddr/internal/logger"
)

const (
	portalDest        = "org.freedesktop.portal.Desktop"
	portalPath        = "/org/freedesktop/portal/desktop"
	locationIface     = "org.freedesktop.portal.Location"
	requestIface      = "org.freedesktop.portal.Request"
	responseMember    = "Response"
	sessionCloseAddr  = "org.freedesktop.portal.Session.Close"
	permStoreDest     = "org.freedesktop.impl.portal.PermissionStore"
	permStorePath     = "/org/freedesktop/impl/portal/PermissionStore"
	permStoreLookup   = "org.freedesktop.impl.portal.PermissionStore.Lookup"
	permTable         = "location"
	permID            = "location"
	responseGranted   = 0
	responseCancelled = 1

	signalBufferSize = 8
)

// PortalClient talks to the xdg-desktop-portal location portal and its
// permission store. Requesting permission starts a short-lived location
// session, which causes the desktop environment to raise its consent dialog.
type PortalClient struct {
	appID  string
	logger *logger.Logger
	tokens atomic.Uint64
}

// NewPortalClient returns a permission Client backed by the desktop portal.
func NewPortalClient(appID string, log *logger.Logger) *PortalClient {
	return &PortalClient{
		appID:  appID,
		logger: log,
	}
}

// Granted reports whether the permission store currently holds a grant for
// the application.
func (p *PortalClient) Granted(ctx context.Context) bool {
	return p.Status(ctx) == StateGranted
}

// Status reads the location permission table from the permission store. A
// stored "yes" maps to granted, a stored "no" to permanently denied (the
// user has persistently refused and in-app prompts are suppressed), and
// everything else, including store failures, to denied.
func (p *PortalClient) Status(ctx context.Context) State {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		p.logger.Error("failed to connect to session bus", logger.Err(err))
		return StateDenied
	}
	defer p.closeBus(conn)

	var permissions map[string][]string
	var data dbus.Variant
	obj := conn.Object(permStoreDest, dbus.ObjectPath(permStorePath))
	if err = obj.CallWithContext(ctx, permStoreLookup, 0, permTable, permID).Store(&permissions, &data); err != nil {
		p.logger.Debug("permission store lookup failed", logger.Err(err))
		return StateDenied
	}

	entry, ok := permissions[p.appID]
	if !ok || len(entry) == 0 {
		return StateDenied
	}
	switch entry[0] {
	case "yes":
		return StateGranted
	case "no":
		return StatePermanentlyDenied
	default:
		return StateDenied
	}
}

// Request starts a location portal session, which makes the desktop raise
// the permission prompt, and waits for the portal's response. The session
// is closed again right away; the interesting part is the resulting
// permission state, not the location stream.
func (p *PortalClient) Request(ctx context.Context) State {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		p.logger.Error("failed to connect to session bus", logger.Err(err))
		return StateDenied
	}
	defer p.closeBus(conn)

	sessionPath, err := p.createSession(ctx, conn)
	if err != nil {
		p.logger.Error("failed to create location portal session", logger.Err(err))
		return StateDenied
	}
	defer func() {
		if err := conn.Object(portalDest, sessionPath).CallWithContext(ctx, sessionCloseAddr, 0).Err; err != nil {
			p.logger.Debug("failed to close location portal session", logger.Err(err))
		}
	}()

	response, err := p.startSession(ctx, conn, sessionPath)
	if err != nil {
		p.logger.Error("failed to start location portal session", logger.Err(err))
		return StateDenied
	}

	switch response {
	case responseGranted:
		return StateGranted
	case responseCancelled:
		return StateDenied
	default:
		// The prompt never reached the user; consult the store to tell a
		// persistent refusal apart from a transient one.
		return p.Status(ctx)
	}
}

// OpenSettings asks the desktop settings application to open its location
// privacy panel. The call is fire-and-forget; failures are only logged.
func (p *PortalClient) OpenSettings(ctx context.Context) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		p.logger.Error("failed to connect to session bus", logger.Err(err))
		return
	}
	defer p.closeBus(conn)

	obj := conn.Object("org.gnome.Settings", "/org/gnome/Settings")
	call := obj.CallWithContext(ctx, "org.freedesktop.Application.ActivateAction", 0,
		"launch-panel", []dbus.Variant{dbus.MakeVariant("location")}, map[string]dbus.Variant{})
	if call.Err != nil {
		p.logger.Debug("failed to open location settings panel", logger.Err(call.Err))
	}
}

func (p *PortalClient) createSession(ctx context.Context, conn *dbus.Conn) (dbus.ObjectPath, error) {
	var requestPath dbus.ObjectPath
	token := p.nextToken()
	options := map[string]dbus.Variant{
		"session_handle_token": dbus.MakeVariant(token),
	}
	obj := conn.Object(portalDest, dbus.ObjectPath(portalPath))
	if err := obj.CallWithContext(ctx, locationIface+".CreateSession", 0, options).Store(&requestPath); err != nil {
		return "", fmt.Errorf("failed to call CreateSession: %w", err)
	}

	return sessionPathFromToken(conn, token), nil
}

func (p *PortalClient) startSession(ctx context.Context, conn *dbus.Conn, session dbus.ObjectPath) (uint32, error) {
	if err := conn.AddMatchSignalContext(ctx,
		dbus.WithMatchInterface(requestIface),
		dbus.WithMatchMember(responseMember),
	); err != nil {
		return 0, fmt.Errorf("failed to subscribe to portal responses: %w", err)
	}
	sigCh := make(chan *dbus.Signal, signalBufferSize)
	conn.Signal(sigCh)
	defer conn.RemoveSignal(sigCh)

	var requestPath dbus.ObjectPath
	options := map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(p.nextToken()),
	}
	obj := conn.Object(portalDest, dbus.ObjectPath(portalPath))
	if err := obj.CallWithContext(ctx, locationIface+".Start", 0, session, "", options).Store(&requestPath); err != nil {
		return 0, fmt.Errorf("failed to call Start: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case sig, ok := <-sigCh:
			if !ok {
				return 0, fmt.Errorf("signal channel closed before portal response")
			}
			if sig.Path != requestPath || len(sig.Body) < 1 {
				continue
			}
			response, ok := sig.Body[0].(uint32)
			if !ok {
				return 0, fmt.Errorf("unexpected portal response body: %v", sig.Body)
			}
			p.logger.Debug("received location portal response", slog.Uint64("response", uint64(response)))
			return response, nil
		}
	}
}

func (p *PortalClient) closeBus(conn *dbus.Conn) {
	if err := conn.Close(); err != nil {
		p.logger.Error("failed to close session bus", logger.Err(err))
	}
}

func (p *PortalClient) nextToken() string {
	return fmt.Sprintf("%s_%d", p.appID, p.tokens.Add(1))
}

// sessionPathFromToken derives the session object path the portal allocates
// for a given token, as defined by the portal session API.
func sessionPathFromToken(conn *dbus.Conn, token string) dbus.ObjectPath {
	sender := conn.Names()[0]
	trimmed := make([]byte, 0, len(sender))
	for i := 0; i < len(sender); i++ {
		switch sender[i] {
		case ':':
			continue
		case '.':
			trimmed = append(trimmed, '_')
		default:
			trimmed = append(trimmed, sender[i])
		}
	}
	return dbus.ObjectPath(fmt.Sprintf("/org/freedesktop/portal/desktop/session/%s/%s", trimmed, token))
}
