// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package encoder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDisabled means no encoder is configured for this kiosk process.
	ErrDisabled = errors.New("encoder: not configured")
	// ErrNotConnected means the control socket is not currently established.
	ErrNotConnected = errors.New("encoder: not connected")
	// ErrConfig means stream settings are missing required fields.
	ErrConfig = errors.New("encoder: invalid stream configuration")
)

// OpError is a request the encoder rejected.
type OpError struct {
	RequestType string
	Code        int
	Comment     string
}

func (e *OpError) Error() string {
	return fmt.Sprintf("encoder: %s failed (code %d): %s", e.RequestType, e.Code, e.Comment)
}

// Category classifies a connection failure for the retry decision.
type Category int

const (
	// CategoryAuth indicates an identification/authentication failure;
	// these are the only failures worth a bounded retry (the encoder may
	// still be settling after a restart).
	CategoryAuth Category = iota
	// CategoryNetwork indicates a transport failure.
	CategoryNetwork
	// CategoryUnknown indicates an unclassified failure.
	CategoryUnknown
)

// String returns a human-readable name for the category
func (c Category) String() string {
	switch c {
	case CategoryAuth:
		return "auth"
	case CategoryNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Classify categorizes a connect failure by message heuristics.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}
	msg := strings.ToLower(err.Error())

	for _, kw := range []string{"authentication", "identify", "identification", "password", "challenge", "401", "403"} {
		if strings.Contains(msg, kw) {
			return CategoryAuth
		}
	}
	for _, kw := range []string{"connection", "refused", "timeout", "unreachable", "dns", "resolve", "socket", "reset", "broken pipe"} {
		if strings.Contains(msg, kw) {
			return CategoryNetwork
		}
	}
	return CategoryUnknown
}

// isOutputAlreadyActive reports whether a StartStream rejection just means
// a prior call already started the output.
func isOutputAlreadyActive(err error) bool {
	var op *OpError
	if !errors.As(err, &op) {
		return false
	}
	return strings.Contains(strings.ToLower(op.Comment), "already active")
}

// isOutputNotActive is the StopStream counterpart.
func isOutputNotActive(err error) bool {
	var op *OpError
	if !errors.As(err, &op) {
		return false
	}
	return strings.Contains(strings.ToLower(op.Comment), "not active")
}
