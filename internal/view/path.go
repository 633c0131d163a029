// Package view turns positions into what a page shows: the state, the
// shareable path and the one-time path rewrite.
package view

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/relabs-tech/whereiam/internal/geo"
)

// RootPath is the landing path that gets rewritten to a position path.
const RootPath = "/"

// FormatPath renders the shareable path /<lat>,<lon>.
func FormatPath(p geo.Position) string {
	return "/" + strconv.FormatFloat(p.Latitude, 'f', -1, 64) +
		"," + strconv.FormatFloat(p.Longitude, 'f', -1, 64)
}

// ParsePath reads a /<lat>,<lon> path. The coordinates must be finite; they
// are not clamped here.
func ParsePath(path string) (geo.Position, bool) {
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	rest, ok := strings.CutPrefix(path, "/")
	if !ok {
		return geo.Position{}, false
	}
	latStr, lonStr, ok := strings.Cut(rest, ",")
	if !ok {
		return geo.Position{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return geo.Position{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return geo.Position{}, false
	}
	return geo.Position{Latitude: lat, Longitude: lon}, true
}
