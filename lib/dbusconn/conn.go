// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dbusconn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Well-known bus selectors for Config.Bus. Anything else is used as a
// bus address.
const (
	SystemBus  = "system"
	SessionBus = "session"
)

// Config selects the bus and the well-known name to own.
type Config struct {
	// Bus is SystemBus, SessionBus or a D-Bus address such as
	// "unix:path=/run/dinstaller/bus".
	Bus string

	// Name is the well-known name requested after connecting. Empty
	// leaves the connection with its unique name only.
	Name string
}

// Conn is a bus connection that owns a well-known name.
type Conn struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// Connect opens the configured bus and requests config.Name. Failing to
// become the primary owner is an error: another instance is running.
func Connect(ctx context.Context, config Config, logger *slog.Logger) (*Conn, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	switch config.Bus {
	case SystemBus, "":
		conn, err = dbus.ConnectSystemBus(dbus.WithContext(ctx))
	case SessionBus:
		conn, err = dbus.ConnectSessionBus(dbus.WithContext(ctx))
	default:
		conn, err = dbus.Connect(config.Bus, dbus.WithContext(ctx))
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to %s bus: %w", busLabel(config.Bus), err)
	}

	if config.Name != "" {
		reply, err := conn.RequestName(config.Name, dbus.NameFlagDoNotQueue)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("requesting name %s: %w", config.Name, err)
		}
		if reply != dbus.RequestNameReplyPrimaryOwner {
			conn.Close()
			return nil, fmt.Errorf("name %s is already owned on the %s bus", config.Name, busLabel(config.Bus))
		}
	}

	logger.Info("connected to bus",
		"bus", busLabel(config.Bus),
		"name", config.Name,
		"unique_name", conn.Names()[0],
	)
	return &Conn{conn: conn, logger: logger}, nil
}

func busLabel(bus string) string {
	if bus == "" {
		return SystemBus
	}
	return bus
}

// ExportObject exports object at path with the standard Properties and
// Introspectable interfaces.
func (c *Conn) ExportObject(path dbus.ObjectPath, object Object) error {
	if err := c.conn.Export(properties{object: object}, path, PropertiesInterface); err != nil {
		return fmt.Errorf("exporting properties at %s: %w", path, err)
	}
	if err := c.conn.Export(introspectable{path: path, object: object}, path, IntrospectableInterface); err != nil {
		c.conn.Export(nil, path, PropertiesInterface)
		return fmt.Errorf("exporting introspection at %s: %w", path, err)
	}
	return nil
}

// ExportMethods exports a method table on iface at path. Each value in
// methods is a function whose last result is *dbus.Error.
func (c *Conn) ExportMethods(path dbus.ObjectPath, iface string, methods map[string]any) error {
	if err := c.conn.ExportMethodTable(methods, path, iface); err != nil {
		return fmt.Errorf("exporting %s at %s: %w", iface, path, err)
	}
	return nil
}

// UnexportObject removes everything exported at path under the given
// extra interfaces, plus the standard ones ExportObject added.
func (c *Conn) UnexportObject(path dbus.ObjectPath, extraInterfaces ...string) error {
	interfaces := append([]string{PropertiesInterface, IntrospectableInterface}, extraInterfaces...)
	for _, iface := range interfaces {
		if err := c.conn.Export(nil, path, iface); err != nil {
			return fmt.Errorf("unexporting %s at %s: %w", iface, path, err)
		}
	}
	return nil
}

// Emit sends a signal from path. signal is the fully qualified member
// name, e.g. "org.freedesktop.DBus.ObjectManager.InterfacesAdded".
func (c *Conn) Emit(path dbus.ObjectPath, signal string, args ...any) error {
	if err := c.conn.Emit(path, signal, args...); err != nil {
		return fmt.Errorf("emitting %s from %s: %w", signal, path, err)
	}
	return nil
}

// Close releases the name and closes the connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}
