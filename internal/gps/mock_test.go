package gps

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/whereiam/internal/geo"
)

func TestMockLocatorStaysNearCentre(t *testing.T) {
	m := NewMockLocator(51.5074, -0.1278, time.Second)
	p := m.Next()
	assert.InDelta(t, 51.5074, p.Latitude, 0.011)
	assert.InDelta(t, -0.1278, p.Longitude, 0.011)
	require.NotNil(t, p.Heading)
	assert.GreaterOrEqual(t, *p.Heading, 0.0)
	assert.Less(t, *p.Heading, 360.0)
}

func TestMockLocatorRunPublishes(t *testing.T) {
	m := NewMockLocator(10, 20, 5*time.Millisecond)
	got := make(chan geo.Position, 16)
	m.Watch(func(p geo.Position) {
		select {
		case got <- p:
		default:
		}
	}, nil, geo.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case p := <-got:
			assert.InDelta(t, 10, p.Latitude, 0.011)
		case <-time.After(time.Second):
			t.Fatal("no reading from mock locator")
		}
	}

	cancel()
	require.NoError(t, <-done)
}
