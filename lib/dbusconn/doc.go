// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dbusconn adapts a godbus connection to the small transport
// surface the question exporter needs: export an object with live
// properties, export a method table, unexport, and emit signals.
//
// Objects exported through [Conn.ExportObject] get the standard
// org.freedesktop.DBus.Properties and org.freedesktop.DBus.Introspectable
// interfaces. Both are answered from the [Object] at call time, so
// property values and introspection data always reflect current state.
//
// godbus dispatches incoming method calls on its own goroutines.
// Callers need no event loop; every exported method must be safe for
// concurrent use.
package dbusconn
