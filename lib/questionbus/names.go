// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questionbus

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/bureau-foundation/dinstaller/lib/dbusconn"
	"github.com/bureau-foundation/dinstaller/lib/question"
)

// Bus names.
const (
	ServiceName = "org.opensuse.DInstaller.Questions"

	RootPath dbus.ObjectPath = "/org/opensuse/DInstaller/Questions1"

	QuestionsInterface      = "org.opensuse.DInstaller.Questions1"
	QuestionInterface       = "org.opensuse.DInstaller.Question1"
	LuksActivationInterface = "org.opensuse.DInstaller.Question.LuksActivation1"
)

// Signals.
const (
	signalInterfacesAdded   = dbusconn.ObjectManagerInterface + ".InterfacesAdded"
	signalInterfacesRemoved = dbusconn.ObjectManagerInterface + ".InterfacesRemoved"
	signalPropertiesChanged = dbusconn.PropertiesInterface + ".PropertiesChanged"
)

// Error names returned to bus clients.
const (
	ErrorNotFound        = QuestionsInterface + ".Error.NotFound"
	ErrorInvalidOption   = QuestionsInterface + ".Error.InvalidOption"
	ErrorInvalidAnswer   = QuestionsInterface + ".Error.InvalidAnswer"
	ErrorAlreadyAnswered = QuestionsInterface + ".Error.AlreadyAnswered"
)

// PathFor returns the object path of the question with the given ID.
func PathFor(id uint32) dbus.ObjectPath {
	return RootPath + "/" + dbus.ObjectPath(strconv.FormatUint(uint64(id), 10))
}

// IDFromPath parses a question object path. ok is false for paths
// outside RootPath or with a malformed ID.
func IDFromPath(path dbus.ObjectPath) (id uint32, ok bool) {
	suffix, found := strings.CutPrefix(string(path), string(RootPath)+"/")
	if !found {
		return 0, false
	}
	value, err := strconv.ParseUint(suffix, 10, 32)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint32(value), true
}

// interfacesOf lists the interfaces a question's object carries, in
// announcement order.
func interfacesOf(q *question.Question) []string {
	interfaces := []string{dbusconn.PropertiesInterface, QuestionInterface}
	if q.Kind() == question.KindLuksActivation {
		interfaces = append(interfaces, LuksActivationInterface)
	}
	return interfaces
}

// busError translates a registry error into a D-Bus error. Unknown
// errors become org.freedesktop.DBus.Error.Failed.
func busError(err error) *dbus.Error {
	var (
		notFound      *question.NotFoundError
		invalidOption *question.InvalidOptionError
		invalidAnswer *question.InvalidAnswerError
	)
	switch {
	case errors.As(err, &notFound):
		return dbus.NewError(ErrorNotFound, []any{err.Error()})
	case errors.As(err, &invalidOption):
		return dbus.NewError(ErrorInvalidOption, []any{err.Error()})
	case errors.As(err, &invalidAnswer):
		return dbus.NewError(ErrorInvalidAnswer, []any{err.Error()})
	case errors.Is(err, question.ErrAlreadyAnswered):
		return dbus.NewError(ErrorAlreadyAnswered, []any{err.Error()})
	case errors.Is(err, question.ErrNoPassword):
		return dbusconn.UnknownProperty(QuestionInterface, "Password")
	default:
		return dbus.NewError(dbusconn.ErrorFailed, []any{err.Error()})
	}
}

func pathNotFound(path dbus.ObjectPath) *dbus.Error {
	return dbus.NewError(ErrorNotFound, []any{fmt.Sprintf("no question at %s", path)})
}
