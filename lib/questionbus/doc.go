// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package questionbus publishes a question registry on D-Bus.
//
// The [Exporter] observes a [question.Registry]. Every question added
// to the registry is exported at RootPath/<id> with the
// org.opensuse.DInstaller.Question1 interface (and, for disk-unlock
// questions, org.opensuse.DInstaller.Question.LuksActivation1), and an
// ObjectManager InterfacesAdded signal announces it. Deleting the
// question unexports the object and emits InterfacesRemoved.
//
// The root object at RootPath implements:
//
//	org.opensuse.DInstaller.Questions1
//	    New(s text, as options, s default) -> o
//	    NewLuksActivation(s device, s text, s label, y attempt) -> o
//	    Delete(o path)
//	    Interactive b (read/write property)
//	org.freedesktop.DBus.ObjectManager
//	    GetManagedObjects() -> a{oa{sa{sv}}}
//
// Clients answer a question by setting its Answer property. For disk
// unlock questions the Password property is set first.
package questionbus
