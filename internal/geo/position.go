// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package geo holds the position value shared by every location source and
// the pure functions derived from it (clamping, colors, gradients).
package geo

import (
	"math"
	"time"
)

// Position is one reading from a location source. It is never mutated once
// produced; a newer reading replaces it wholesale.
type Position struct {
	Latitude  float64   `json:"lat"`                // decimal degrees, [-90, 90]
	Longitude float64   `json:"lon"`                // decimal degrees, [-180, 180]
	Heading   *float64  `json:"heading,omitempty"`  // degrees [0, 360), nil when unknown
	Speed     *float64  `json:"speed,omitempty"`    // m/s, nil when unknown
	Altitude  float64   `json:"altitude,omitempty"` // metres
	Accuracy  float64   `json:"accuracy,omitempty"` // metres, 0 when unknown
	Timestamp time.Time `json:"timestamp"`
}

// Clamped returns latitude and longitude constrained to their domains.
// NaN maps to 0.
func (p Position) Clamped() (lat, lon float64) {
	return Clamp(p.Latitude, -90, 90), Clamp(p.Longitude, -180, 180)
}

// Clamp constrains v to [lo, hi]. NaN maps to 0 (or lo when 0 is outside the range).
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	return math.Max(lo, math.Min(hi, v))
}

// Float returns a pointer to v, for optional fields.
func Float(v float64) *float64 {
	return &v
}
