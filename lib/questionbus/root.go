// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questionbus

import (
	"slices"
	"strconv"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/bureau-foundation/dinstaller/lib/dbusconn"
)

// rootObject serves the properties and introspection of RootPath. Its
// methods are exported separately as method tables.
type rootObject struct {
	exporter *Exporter
}

var questionsIntrospection = introspect.Interface{
	Name: QuestionsInterface,
	Methods: []introspect.Method{
		{Name: "New", Args: []introspect.Arg{
			{Name: "text", Type: "s", Direction: "in"},
			{Name: "options", Type: "as", Direction: "in"},
			{Name: "default_option", Type: "s", Direction: "in"},
			{Name: "path", Type: "o", Direction: "out"},
		}},
		{Name: "NewLuksActivation", Args: []introspect.Arg{
			{Name: "device", Type: "s", Direction: "in"},
			{Name: "text", Type: "s", Direction: "in"},
			{Name: "label", Type: "s", Direction: "in"},
			{Name: "attempt", Type: "y", Direction: "in"},
			{Name: "path", Type: "o", Direction: "out"},
		}},
		{Name: "Delete", Args: []introspect.Arg{
			{Name: "path", Type: "o", Direction: "in"},
		}},
	},
	Properties: []introspect.Property{
		{Name: "Interactive", Type: "b", Access: "readwrite"},
	},
}

var objectManagerIntrospection = introspect.Interface{
	Name: dbusconn.ObjectManagerInterface,
	Methods: []introspect.Method{
		{Name: "GetManagedObjects", Args: []introspect.Arg{
			{Name: "objects", Type: "a{oa{sa{sv}}}", Direction: "out"},
		}},
	},
	Signals: []introspect.Signal{
		{Name: "InterfacesAdded", Args: []introspect.Arg{
			{Name: "object", Type: "o"},
			{Name: "interfaces", Type: "a{sa{sv}}"},
		}},
		{Name: "InterfacesRemoved", Args: []introspect.Arg{
			{Name: "object", Type: "o"},
			{Name: "interfaces", Type: "as"},
		}},
	},
}

func (r *rootObject) Introspect() introspect.Node {
	var ids []uint64
	for _, path := range r.exporter.Paths() {
		if id, ok := IDFromPath(path); ok {
			ids = append(ids, uint64(id))
		}
	}
	slices.Sort(ids)

	node := introspect.Node{
		Interfaces: []introspect.Interface{questionsIntrospection, objectManagerIntrospection},
	}
	for _, id := range ids {
		node.Children = append(node.Children, introspect.Node{Name: strconv.FormatUint(id, 10)})
	}
	return node
}

func (r *rootObject) Get(iface, property string) (dbus.Variant, *dbus.Error) {
	if iface != QuestionsInterface {
		return dbus.Variant{}, dbusconn.UnknownInterface(iface)
	}
	if property != "Interactive" {
		return dbus.Variant{}, dbusconn.UnknownProperty(iface, property)
	}
	return dbus.MakeVariant(r.exporter.isInteractive()), nil
}

func (r *rootObject) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	switch iface {
	case QuestionsInterface:
		return map[string]dbus.Variant{"Interactive": dbus.MakeVariant(r.exporter.isInteractive())}, nil
	case dbusconn.ObjectManagerInterface:
		return map[string]dbus.Variant{}, nil
	}
	return nil, dbusconn.UnknownInterface(iface)
}

func (r *rootObject) Set(iface, property string, value dbus.Variant) *dbus.Error {
	if iface != QuestionsInterface {
		return dbusconn.UnknownInterface(iface)
	}
	if property != "Interactive" {
		return dbusconn.UnknownProperty(iface, property)
	}
	interactive, ok := value.Value().(bool)
	if !ok {
		return dbusconn.InvalidArgs("Interactive must be a boolean")
	}
	return r.exporter.setInteractive(interactive)
}
