// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questionbus

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/bureau-foundation/dinstaller/lib/dbusconn"
	"github.com/bureau-foundation/dinstaller/lib/question"
)

// questionObject is the bus face of one question. Reads come straight
// from the question; writes go through the registry so that answering
// over the bus and answering from the control socket behave the same.
type questionObject struct {
	registry *question.Registry
	question *question.Question
}

var questionIntrospection = introspect.Interface{
	Name: QuestionInterface,
	Properties: []introspect.Property{
		{Name: "Id", Type: "u", Access: "read"},
		{Name: "Text", Type: "s", Access: "read"},
		{Name: "Options", Type: "as", Access: "read"},
		{Name: "DefaultOption", Type: "s", Access: "read"},
		{Name: "Answer", Type: "s", Access: "readwrite"},
	},
}

var luksIntrospection = introspect.Interface{
	Name: LuksActivationInterface,
	Properties: []introspect.Property{
		{Name: "Attempt", Type: "y", Access: "read"},
		{Name: "Password", Type: "s", Access: "readwrite"},
	},
}

func (o *questionObject) Introspect() introspect.Node {
	node := introspect.Node{Interfaces: []introspect.Interface{questionIntrospection}}
	if o.question.Kind() == question.KindLuksActivation {
		node.Interfaces = append(node.Interfaces, luksIntrospection)
	}
	return node
}

// properties returns the property map of one interface, or nil when
// the question does not carry it.
func (o *questionObject) properties(iface string) map[string]dbus.Variant {
	q := o.question
	switch iface {
	case dbusconn.PropertiesInterface:
		return map[string]dbus.Variant{}
	case QuestionInterface:
		return map[string]dbus.Variant{
			"Id":            dbus.MakeVariant(q.ID()),
			"Text":          dbus.MakeVariant(q.Text()),
			"Options":       dbus.MakeVariant(nonNil(q.Options())),
			"DefaultOption": dbus.MakeVariant(q.DefaultOption()),
			"Answer":        dbus.MakeVariant(q.Answer()),
		}
	case LuksActivationInterface:
		luks, ok := q.Luks()
		if !ok {
			return nil
		}
		return map[string]dbus.Variant{
			"Attempt":  dbus.MakeVariant(luks.Attempt),
			"Password": dbus.MakeVariant(q.Password()),
		}
	}
	return nil
}

// managed returns the full interface map announced for the object.
func (o *questionObject) managed() map[string]map[string]dbus.Variant {
	result := make(map[string]map[string]dbus.Variant)
	for _, iface := range interfacesOf(o.question) {
		result[iface] = o.properties(iface)
	}
	return result
}

func (o *questionObject) Get(iface, property string) (dbus.Variant, *dbus.Error) {
	values := o.properties(iface)
	if values == nil {
		return dbus.Variant{}, dbusconn.UnknownInterface(iface)
	}
	value, ok := values[property]
	if !ok {
		return dbus.Variant{}, dbusconn.UnknownProperty(iface, property)
	}
	return value, nil
}

func (o *questionObject) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	values := o.properties(iface)
	if values == nil {
		return nil, dbusconn.UnknownInterface(iface)
	}
	return values, nil
}

func (o *questionObject) Set(iface, property string, value dbus.Variant) *dbus.Error {
	values := o.properties(iface)
	if values == nil {
		return dbusconn.UnknownInterface(iface)
	}
	if _, ok := values[property]; !ok {
		return dbusconn.UnknownProperty(iface, property)
	}

	text, ok := value.Value().(string)
	writable := (iface == QuestionInterface && property == "Answer") ||
		(iface == LuksActivationInterface && property == "Password")
	if !writable {
		return dbusconn.PropertyReadOnly(iface, property)
	}
	if !ok {
		return dbusconn.InvalidArgs(property + " must be a string")
	}

	var err error
	if property == "Answer" {
		err = o.registry.Answer(o.question.ID(), question.Response{Option: text})
	} else {
		err = o.registry.SetPassword(o.question.ID(), text)
	}
	if err != nil {
		return busError(err)
	}
	return nil
}

// nonNil keeps an empty option list encodable as "as".
func nonNil(options []string) []string {
	if options == nil {
		return []string{}
	}
	return options
}
