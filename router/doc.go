// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package router wires HTTP routes to handlers using Go 1.22 method
// patterns on the standard ServeMux.
package router
