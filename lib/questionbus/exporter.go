// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questionbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/bureau-foundation/dinstaller/lib/dbusconn"
	"github.com/bureau-foundation/dinstaller/lib/question"
)

// Transport is the part of a bus connection the exporter uses.
// *dbusconn.Conn implements it.
type Transport interface {
	ExportObject(path dbus.ObjectPath, object dbusconn.Object) error
	ExportMethods(path dbus.ObjectPath, iface string, methods map[string]any) error
	UnexportObject(path dbus.ObjectPath, extraInterfaces ...string) error
	Emit(path dbus.ObjectPath, signal string, args ...any) error
}

// InteractiveSwitch controls whether questions wait for a person or
// are answered automatically. The predefined-answers policy implements
// it.
type InteractiveSwitch interface {
	Interactive() bool
	SetInteractive(interactive bool)
}

// Config configures an Exporter.
type Config struct {
	Registry  *question.Registry
	Transport Transport
	Logger    *slog.Logger

	// Interactive backs the root Interactive property. When nil the
	// property reads true and cannot be written.
	Interactive InteractiveSwitch
}

// ManagedObjects maps object paths to interface names to properties,
// as returned by GetManagedObjects.
type ManagedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Exporter keeps the exported question objects in step with a
// registry.
type Exporter struct {
	registry    *question.Registry
	transport   Transport
	logger      *slog.Logger
	interactive InteractiveSwitch

	mu      sync.Mutex
	objects map[dbus.ObjectPath]*questionObject
}

// NewExporter returns an exporter. Call Start to publish it.
func NewExporter(config Config) *Exporter {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Exporter{
		registry:    config.Registry,
		transport:   config.Transport,
		logger:      config.Logger,
		interactive: config.Interactive,
		objects:     make(map[dbus.ObjectPath]*questionObject),
	}
}

// Start exports the root object and subscribes to the registry. It
// must run before the first question is added; questions already in
// the registry are not exported.
func (e *Exporter) Start() error {
	if err := e.transport.ExportMethods(RootPath, QuestionsInterface, map[string]any{
		"New":               e.New,
		"NewLuksActivation": e.NewLuksActivation,
		"Delete":            e.Delete,
	}); err != nil {
		return err
	}
	if err := e.transport.ExportMethods(RootPath, dbusconn.ObjectManagerInterface, map[string]any{
		"GetManagedObjects": e.GetManagedObjects,
	}); err != nil {
		return err
	}
	if err := e.transport.ExportObject(RootPath, &rootObject{exporter: e}); err != nil {
		return err
	}
	e.registry.Subscribe(e)
	e.logger.Info("questions exported", "path", RootPath)
	return nil
}

// QuestionAdded exports q. Called by the registry with its lock held.
func (e *Exporter) QuestionAdded(q *question.Question) {
	path := PathFor(q.ID())
	object := &questionObject{registry: e.registry, question: q}

	e.mu.Lock()
	if _, exists := e.objects[path]; exists {
		e.mu.Unlock()
		panic(fmt.Sprintf("questionbus: %s exported twice", path))
	}
	e.objects[path] = object
	e.mu.Unlock()

	if err := e.transport.ExportObject(path, object); err != nil {
		e.logger.Error("exporting question failed", "path", path, "error", err)
		return
	}
	if err := e.transport.Emit(RootPath, signalInterfacesAdded, path, object.managed()); err != nil {
		e.logger.Warn("announcing question failed", "path", path, "error", err)
	}
	e.logger.Debug("question exported", "path", path, "question_id", q.ID())
}

// QuestionRemoved unexports q. Called by the registry with its lock
// held.
func (e *Exporter) QuestionRemoved(q *question.Question) {
	path := PathFor(q.ID())

	e.mu.Lock()
	_, exists := e.objects[path]
	delete(e.objects, path)
	e.mu.Unlock()
	if !exists {
		panic(fmt.Sprintf("questionbus: %s removed but never exported", path))
	}

	interfaces := interfacesOf(q)
	if err := e.transport.UnexportObject(path); err != nil {
		e.logger.Error("unexporting question failed", "path", path, "error", err)
	}
	if err := e.transport.Emit(RootPath, signalInterfacesRemoved, path, interfaces); err != nil {
		e.logger.Warn("announcing question removal failed", "path", path, "error", err)
	}
	e.logger.Debug("question unexported", "path", path, "question_id", q.ID())
}

// QuestionAnswered emits PropertiesChanged for the Answer property.
func (e *Exporter) QuestionAnswered(q *question.Question) {
	path := PathFor(q.ID())
	changed := map[string]dbus.Variant{"Answer": dbus.MakeVariant(q.Answer())}
	if err := e.transport.Emit(path, signalPropertiesChanged, QuestionInterface, changed, []string{}); err != nil {
		e.logger.Warn("announcing answer failed", "path", path, "error", err)
	}
}

// New creates and adds a generic question and returns its path.
func (e *Exporter) New(text string, options []string, defaultOption string) (dbus.ObjectPath, *dbus.Error) {
	q, err := question.New(text, options, defaultOption)
	if err != nil {
		return "", busError(err)
	}
	if err := e.registry.Add(q); err != nil {
		return "", busError(err)
	}
	return PathFor(q.ID()), nil
}

// NewLuksActivation creates and adds a disk-unlock question and returns
// its path.
func (e *Exporter) NewLuksActivation(device, text, label string, attempt uint8) (dbus.ObjectPath, *dbus.Error) {
	q := question.NewLuksActivation(device, text, label, attempt)
	if err := e.registry.Add(q); err != nil {
		return "", busError(err)
	}
	return PathFor(q.ID()), nil
}

// Delete removes the question exported at path.
func (e *Exporter) Delete(path dbus.ObjectPath) *dbus.Error {
	e.mu.Lock()
	object, ok := e.objects[path]
	e.mu.Unlock()
	if !ok {
		return pathNotFound(path)
	}
	e.registry.Delete(object.question)
	return nil
}

// GetManagedObjects implements org.freedesktop.DBus.ObjectManager.
func (e *Exporter) GetManagedObjects() (ManagedObjects, *dbus.Error) {
	return e.ManagedObjects(), nil
}

// ManagedObjects returns the interface maps of every exported
// question.
func (e *Exporter) ManagedObjects() ManagedObjects {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make(ManagedObjects, len(e.objects))
	for path, object := range e.objects {
		result[path] = object.managed()
	}
	return result
}

// Paths returns the exported question paths.
func (e *Exporter) Paths() []dbus.ObjectPath {
	e.mu.Lock()
	defer e.mu.Unlock()
	paths := make([]dbus.ObjectPath, 0, len(e.objects))
	for path := range e.objects {
		paths = append(paths, path)
	}
	return paths
}

func (e *Exporter) isInteractive() bool {
	if e.interactive == nil {
		return true
	}
	return e.interactive.Interactive()
}

func (e *Exporter) setInteractive(interactive bool) *dbus.Error {
	if e.interactive == nil {
		return dbusconn.PropertyReadOnly(QuestionsInterface, "Interactive")
	}
	if e.interactive.Interactive() == interactive {
		return nil
	}
	e.interactive.SetInteractive(interactive)
	e.logger.Info("interactive mode changed", "interactive", interactive)

	changed := map[string]dbus.Variant{"Interactive": dbus.MakeVariant(interactive)}
	if err := e.transport.Emit(RootPath, signalPropertiesChanged, QuestionsInterface, changed, []string{}); err != nil {
		e.logger.Warn("announcing interactive change failed", "error", err)
	}
	return nil
}
