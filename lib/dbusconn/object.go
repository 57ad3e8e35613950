// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dbusconn

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

// Standard interface names.
const (
	PropertiesInterface     = "org.freedesktop.DBus.Properties"
	IntrospectableInterface = "org.freedesktop.DBus.Introspectable"
	ObjectManagerInterface  = "org.freedesktop.DBus.ObjectManager"
)

// Standard error names used by property handlers.
const (
	ErrorUnknownInterface = "org.freedesktop.DBus.Error.UnknownInterface"
	ErrorUnknownProperty  = "org.freedesktop.DBus.Error.UnknownProperty"
	ErrorPropertyReadOnly = "org.freedesktop.DBus.Error.PropertyReadOnly"
	ErrorInvalidArgs      = "org.freedesktop.DBus.Error.InvalidArgs"
	ErrorFailed           = "org.freedesktop.DBus.Error.Failed"
)

// Object is an exported object whose properties are computed on
// demand.
type Object interface {
	// Introspect describes the object's own interfaces and child
	// nodes. The standard Properties and Introspectable interfaces are
	// added by the connection.
	Introspect() introspect.Node

	Get(iface, property string) (dbus.Variant, *dbus.Error)
	GetAll(iface string) (map[string]dbus.Variant, *dbus.Error)
	Set(iface, property string, value dbus.Variant) *dbus.Error
}

// UnknownInterface returns the standard error for a property request
// naming an interface the object does not implement.
func UnknownInterface(iface string) *dbus.Error {
	return dbus.NewError(ErrorUnknownInterface, []any{fmt.Sprintf("unknown interface %s", iface)})
}

// UnknownProperty returns the standard error for an unknown property.
func UnknownProperty(iface, property string) *dbus.Error {
	return dbus.NewError(ErrorUnknownProperty, []any{fmt.Sprintf("unknown property %s.%s", iface, property)})
}

// PropertyReadOnly returns the standard error for writing a read-only
// property.
func PropertyReadOnly(iface, property string) *dbus.Error {
	return dbus.NewError(ErrorPropertyReadOnly, []any{fmt.Sprintf("property %s.%s is read-only", iface, property)})
}

// InvalidArgs returns the standard error for a value of the wrong type.
func InvalidArgs(message string) *dbus.Error {
	return dbus.NewError(ErrorInvalidArgs, []any{message})
}

// properties is the value exported on PropertiesInterface. Only its
// three methods are visible on the bus.
type properties struct {
	object Object
}

func (p properties) Get(iface, property string) (dbus.Variant, *dbus.Error) {
	return p.object.Get(iface, property)
}

func (p properties) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	return p.object.GetAll(iface)
}

func (p properties) Set(iface, property string, value dbus.Variant) *dbus.Error {
	return p.object.Set(iface, property, value)
}

// introspectable renders the object's introspection data on every call.
type introspectable struct {
	path   dbus.ObjectPath
	object Object
}

func (i introspectable) Introspect() (string, *dbus.Error) {
	data, err := IntrospectXML(i.path, i.object)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return data, nil
}

// IntrospectXML renders the introspection document of object at path,
// including the standard interfaces.
func IntrospectXML(path dbus.ObjectPath, object Object) (string, error) {
	node := object.Introspect()
	node.Name = string(path)
	node.Interfaces = append([]introspect.Interface{
		introspect.IntrospectData,
		prop.IntrospectData,
	}, node.Interfaces...)

	data, err := xml.Marshal(node)
	if err != nil {
		return "", fmt.Errorf("encoding introspection data for %s: %w", path, err)
	}
	return strings.TrimSpace(introspect.IntrospectDeclarationString) + string(data), nil
}
