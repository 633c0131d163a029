// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"context"
	"math"
	"time"

	"github.com/relabs-tech/whereiam/internal/geo"
)

// MockLocator wanders smoothly around a centre point.
type MockLocator struct {
	*watchers
	lat, lon float64
	interval time.Duration
	start    time.Time
}

// NewMockLocator creates a mock location source that generates smoothly
// changing positions around lat/lon every interval.
func NewMockLocator(lat, lon float64, interval time.Duration) *MockLocator {
	return &MockLocator{
		watchers: newWatchers(0),
		lat:      lat,
		lon:      lon,
		interval: interval,
		start:    time.Now(),
	}
}

// Next computes the position for the current instant.
func (m *MockLocator) Next() geo.Position {
	elapsed := time.Since(m.start).Seconds()

	return geo.Position{
		Latitude:  m.lat + 0.01*math.Sin(elapsed*0.1),
		Longitude: m.lon + 0.01*math.Cos(elapsed*0.07),
		Heading:   geo.Float(math.Mod(elapsed*30, 360)),
		Accuracy:  5,
		Timestamp: time.Now(),
	}
}

// Run publishes a position every interval until ctx is cancelled.
func (m *MockLocator) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.publish(m.Next())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.publish(m.Next())
		}
	}
}
