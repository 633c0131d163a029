// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geo

import (
	"fmt"
	"math"
	"strconv"
)

// maxColor is 0xFFFFFF, the top of the 24-bit RGB range.
const maxColor = 16777215

// DefaultAngle is used when no heading is known.
const DefaultAngle = 90.0

// Colors maps a position onto the two gradient stops as 6-digit hex
// strings without the leading '#'. Latitude drives the first stop and
// longitude the second; both are clamped first.
func Colors(p Position) (color1, color2 string) {
	lat, lon := p.Clamped()
	return hex((lat + 90) * (maxColor / 180.0)), hex((lon + 180) * (maxColor / 360.0))
}

func hex(x float64) string {
	v := int64(math.Floor(x))
	if v < 0 {
		v = 0
	}
	if v > maxColor {
		v = maxColor
	}
	return fmt.Sprintf("%06x", v)
}

// GradientAngle is the heading when one is known and non-zero, otherwise
// DefaultAngle.
func GradientAngle(p Position) float64 {
	if p.Heading == nil || *p.Heading == 0 || math.IsNaN(*p.Heading) {
		return DefaultAngle
	}
	return *p.Heading
}

// Background renders the CSS background for a position, or plain black when
// there is none yet.
func Background(p *Position) string {
	if p == nil {
		return "black"
	}
	c1, c2 := Colors(*p)
	return fmt.Sprintf("linear-gradient(%sdeg, #%s, #%s)",
		strconv.FormatFloat(GradientAngle(*p), 'f', -1, 64), c1, c2)
}

// FormatCoord renders a coordinate with eight decimals.
func FormatCoord(x float64) string {
	return strconv.FormatFloat(x, 'f', 8, 64)
}
