// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

// Package notify delivers user-facing messages via desktop notifications.
package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	dbusDest   = "org.freedesktop.Notifications"
	dbusPath   = "/org/freedesktop/Notifications"
	dbusMethod = "org.freedesktop.Notifications.Notify"

	appName       = "geoaddr"
	defaultExpiry = int32(10000) // milliseconds
)

// Notifier is the sink for user-facing messages.
type Notifier interface {
	Notify(ctx context.Context, summary, body string) error
}

// DBusNotifier sends messages to the freedesktop notification daemon on the
// session bus. A fresh connection is made per message; the facade emits
// notifications rarely enough that connection reuse isn't worth the state.
type DBusNotifier struct{}

// NewDBusNotifier returns a Notifier backed by org.freedesktop.Notifications.
func NewDBusNotifier() *DBusNotifier {
	return &DBusNotifier{}
}

// Notify sends a desktop notification with the given summary and body.
func (n *DBusNotifier) Notify(ctx context.Context, summary, body string) (err error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close session bus: %w", closeErr)
		}
	}()

	obj := conn.Object(dbusDest, dbus.ObjectPath(dbusPath))
	call := obj.CallWithContext(ctx, dbusMethod, 0, appName, uint32(0), "", summary, body,
		[]string{}, map[string]dbus.Variant{}, defaultExpiry)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	return nil
}

// NoopNotifier discards all messages. It serves headless environments where
// no notification daemon is available.
type NoopNotifier struct{}

// NewNoopNotifier returns a Notifier that drops every message.
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

// Notify discards the message.
func (n *NoopNotifier) Notify(_ context.Context, _, _ string) error {
	return nil
}
