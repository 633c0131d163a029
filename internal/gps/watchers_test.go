package gps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/whereiam/internal/geo"
)

type recorder struct {
	positions []geo.Position
	errs      []*geo.PositionError
}

func (r *recorder) ok(p geo.Position)           { r.positions = append(r.positions, p) }
func (r *recorder) fail(err *geo.PositionError) { r.errs = append(r.errs, err) }

func TestWatchReceivesEveryReading(t *testing.T) {
	w := newWatchers(0)
	var r recorder
	id := w.Watch(r.ok, r.fail, geo.Options{})

	w.publish(geo.Position{Latitude: 1})
	w.publishError(geo.NewError(geo.PositionUnavailable, "lost"))
	w.publish(geo.Position{Latitude: 2})

	require.Len(t, r.positions, 2)
	require.Len(t, r.errs, 1)
	assert.Equal(t, geo.PositionUnavailable, r.errs[0].Code)

	w.ClearWatch(id)
	w.publish(geo.Position{Latitude: 3})
	assert.Len(t, r.positions, 2)
	assert.Equal(t, 0, w.watchCount())

	// Clearing twice is harmless.
	w.ClearWatch(id)
}

func TestRequestOnceIsAnsweredOnce(t *testing.T) {
	w := newWatchers(0)
	var r recorder
	w.RequestOnce(r.ok, r.fail, geo.Options{})

	w.publish(geo.Position{Latitude: 1})
	w.publish(geo.Position{Latitude: 2})

	require.Len(t, r.positions, 1)
	assert.Equal(t, 1.0, r.positions[0].Latitude)
}

func TestRequestOnceMaximumAge(t *testing.T) {
	w := newWatchers(0)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }
	w.publish(geo.Position{Latitude: 7, Timestamp: now.Add(-time.Second)})

	var fresh recorder
	w.RequestOnce(fresh.ok, fresh.fail, geo.Options{MaximumAge: 5 * time.Second})
	require.Len(t, fresh.positions, 1)
	assert.Equal(t, 7.0, fresh.positions[0].Latitude)

	var stale recorder
	w.RequestOnce(stale.ok, stale.fail, geo.Options{MaximumAge: 500 * time.Millisecond})
	assert.Empty(t, stale.positions)

	w.publish(geo.Position{Latitude: 8, Timestamp: now})
	require.Len(t, stale.positions, 1)
	assert.Equal(t, 8.0, stale.positions[0].Latitude)
}

func TestRequestOnceTimeout(t *testing.T) {
	w := newWatchers(0)
	errs := make(chan *geo.PositionError, 1)
	w.RequestOnce(func(geo.Position) { t.Error("unexpected reading") },
		func(err *geo.PositionError) { errs <- err },
		geo.Options{Timeout: 20 * time.Millisecond})

	select {
	case err := <-errs:
		assert.Equal(t, geo.Timeout, err.Code)
	case <-time.After(time.Second):
		t.Fatal("timeout was never reported")
	}

	// A late reading does not reach the expired request.
	w.publish(geo.Position{})
}

func TestFatalErrorAnswersEveryRequest(t *testing.T) {
	w := newWatchers(0)
	var before recorder
	w.Watch(before.ok, before.fail, geo.Options{})

	w.setFatal(geo.NewError(geo.PermissionDenied, "no port"))
	require.Len(t, before.errs, 1)

	var once, watch recorder
	w.RequestOnce(once.ok, once.fail, geo.Options{})
	w.Watch(watch.ok, watch.fail, geo.Options{})
	require.Len(t, once.errs, 1)
	require.Len(t, watch.errs, 1)
	assert.Equal(t, geo.PermissionDenied, once.errs[0].Code)
}

func TestHighAccuracyFilter(t *testing.T) {
	w := newWatchers(10)
	var precise, coarse recorder
	w.Watch(precise.ok, precise.fail, geo.Options{EnableHighAccuracy: true})
	w.Watch(coarse.ok, coarse.fail, geo.Options{})

	w.publish(geo.Position{Latitude: 1, Accuracy: 25})
	w.publish(geo.Position{Latitude: 2, Accuracy: 4})

	require.Len(t, precise.positions, 1)
	assert.Equal(t, 2.0, precise.positions[0].Latitude)
	require.Len(t, precise.errs, 1)
	assert.Equal(t, geo.PositionUnavailable, precise.errs[0].Code)

	assert.Len(t, coarse.positions, 2)
	assert.Empty(t, coarse.errs)
}
