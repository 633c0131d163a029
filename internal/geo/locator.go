// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geo

import (
	"fmt"
	"time"
)

// ErrorCode classifies a failed reading. Values follow the W3C
// GeolocationPositionError numbering.
type ErrorCode int

const (
	PermissionDenied    ErrorCode = 1
	PositionUnavailable ErrorCode = 2
	Timeout             ErrorCode = 3
)

func (c ErrorCode) String() string {
	switch c {
	case PermissionDenied:
		return "permission denied"
	case PositionUnavailable:
		return "position unavailable"
	case Timeout:
		return "timeout"
	default:
		return fmt.Sprintf("error code %d", int(c))
	}
}

// PositionError is the descriptor handed to error callbacks.
type PositionError struct {
	Code    ErrorCode
	Message string
}

func (e *PositionError) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Message
}

// NewError builds a PositionError with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *PositionError {
	return &PositionError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Options tune a request or watch.
type Options struct {
	// EnableHighAccuracy asks for higher-precision readings at the cost of latency.
	EnableHighAccuracy bool
	// Timeout bounds a one-shot request. Zero waits forever.
	Timeout time.Duration
	// MaximumAge lets a one-shot request be answered from a cached reading
	// no older than this.
	MaximumAge time.Duration
}

type (
	SuccessFunc func(Position)
	ErrorFunc   func(*PositionError)
)

// WatchID identifies a running watch.
type WatchID int64

// Locator is a location capability: a one-shot request plus long-lived
// watches. Callbacks may run on any goroutine.
type Locator interface {
	RequestOnce(onSuccess SuccessFunc, onError ErrorFunc, opts Options)
	Watch(onSuccess SuccessFunc, onError ErrorFunc, opts Options) WatchID
	ClearWatch(id WatchID)
}
