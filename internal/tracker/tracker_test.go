package tracker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/whereiam/internal/geo"
)

type callbacks struct {
	ok   geo.SuccessFunc
	fail geo.ErrorFunc
	opts geo.Options
}

// fakeLocator captures callbacks so tests can fire them at will, including
// after the watch has been cleared.
type fakeLocator struct {
	mu      sync.Mutex
	once    []callbacks
	watches map[geo.WatchID]callbacks
	cleared []geo.WatchID
	nextID  geo.WatchID
}

func newFakeLocator() *fakeLocator {
	return &fakeLocator{watches: make(map[geo.WatchID]callbacks)}
}

func (f *fakeLocator) RequestOnce(ok geo.SuccessFunc, fail geo.ErrorFunc, opts geo.Options) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.once = append(f.once, callbacks{ok, fail, opts})
}

func (f *fakeLocator) Watch(ok geo.SuccessFunc, fail geo.ErrorFunc, opts geo.Options) geo.WatchID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.watches[f.nextID] = callbacks{ok, fail, opts}
	return f.nextID
}

func (f *fakeLocator) ClearWatch(id geo.WatchID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, id)
}

func (f *fakeLocator) watch(id geo.WatchID) callbacks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watches[id]
}

func pos(lat, lon float64) geo.Position {
	return geo.Position{Latitude: lat, Longitude: lon, Timestamp: time.Now()}
}

func TestSubscribeIssuesOneShotAndWatch(t *testing.T) {
	loc := newFakeLocator()
	tr := New(loc, nil)
	opts := geo.Options{EnableHighAccuracy: true}

	sub := tr.Subscribe(opts, nil)
	defer sub.Unsubscribe()

	require.Len(t, loc.once, 1)
	require.Len(t, loc.watches, 1)
	assert.True(t, loc.once[0].opts.EnableHighAccuracy)
	assert.True(t, loc.watch(1).opts.EnableHighAccuracy)

	_, ok := sub.Current()
	assert.False(t, ok)
}

func TestBothPathsFeedTheSameSlot(t *testing.T) {
	loc := newFakeLocator()
	var got []geo.Position
	sub := New(loc, nil).Subscribe(geo.Options{}, func(p geo.Position) {
		got = append(got, p)
	})
	defer sub.Unsubscribe()

	loc.watch(1).ok(pos(1, 1))
	loc.once[0].ok(pos(2, 2)) // the one-shot answers late
	loc.watch(1).ok(pos(3, 3))

	require.Len(t, got, 3)
	assert.Equal(t, []float64{1, 2, 3}, []float64{got[0].Latitude, got[1].Latitude, got[2].Latitude})

	cur, ok := sub.Current()
	require.True(t, ok)
	assert.Equal(t, 3.0, cur.Latitude)
}

func TestFailureKeepsLastPosition(t *testing.T) {
	loc := newFakeLocator()
	updates := 0
	sub := New(loc, nil).Subscribe(geo.Options{}, func(geo.Position) { updates++ })
	defer sub.Unsubscribe()

	loc.watch(1).ok(pos(51.5, -0.12))
	loc.watch(1).fail(geo.NewError(geo.Timeout, "no fix"))
	loc.once[0].fail(&geo.PositionError{Code: geo.PermissionDenied})

	cur, ok := sub.Current()
	require.True(t, ok)
	assert.Equal(t, 51.5, cur.Latitude)
	assert.Equal(t, 1, updates)

	// The subscription survives errors.
	loc.watch(1).ok(pos(52, 0))
	cur, _ = sub.Current()
	assert.Equal(t, 52.0, cur.Latitude)
}

func TestNoUpdatesAfterUnsubscribe(t *testing.T) {
	loc := newFakeLocator()
	updates := 0
	sub := New(loc, nil).Subscribe(geo.Options{}, func(geo.Position) { updates++ })

	loc.watch(1).ok(pos(10, 10))
	sub.Unsubscribe()

	assert.Equal(t, []geo.WatchID{1}, loc.cleared)

	// Stale callbacks from both paths are ignored.
	loc.watch(1).ok(pos(20, 20))
	loc.once[0].ok(pos(30, 30))
	loc.watch(1).fail(geo.NewError(geo.PositionUnavailable, "late"))

	assert.Equal(t, 1, updates)
	cur, _ := sub.Current()
	assert.Equal(t, 10.0, cur.Latitude)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	loc := newFakeLocator()
	sub := New(loc, nil).Subscribe(geo.Options{}, nil)
	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Len(t, loc.cleared, 1)
}

func TestUnsupportedNeverYieldsPosition(t *testing.T) {
	tr := New(nil, nil)
	assert.False(t, tr.Supported())

	called := false
	sub := tr.Subscribe(geo.Options{}, func(geo.Position) { called = true })
	_, ok := sub.Current()
	assert.False(t, ok)
	assert.False(t, called)
	sub.Unsubscribe()
}

func TestUnsubscribeWaitsForInFlightDelivery(t *testing.T) {
	loc := newFakeLocator()
	entered := make(chan struct{})
	release := make(chan struct{})
	sub := New(loc, nil).Subscribe(geo.Options{}, func(geo.Position) {
		close(entered)
		<-release
	})

	go loc.watch(1).ok(pos(1, 1))
	<-entered

	done := make(chan struct{})
	go func() {
		sub.Unsubscribe()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Unsubscribe returned while a delivery was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Unsubscribe did not return")
	}
}

func TestConcurrentCallbacks(t *testing.T) {
	loc := newFakeLocator()
	var mu sync.Mutex
	n := 0
	sub := New(loc, nil).Subscribe(geo.Options{}, func(geo.Position) {
		mu.Lock()
		n++
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			loc.watch(1).ok(pos(float64(i), 0))
		}(i)
		go func() {
			defer wg.Done()
			sub.Current()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, n)
}
