package gps

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/whereiam/internal/geo"
)

// sentence frames an NMEA body with '$' and its checksum.
func sentence(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, sum)
}

const (
	ggaBody      = "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"
	rmcBody      = "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"
	rmcVoidBody  = "GPRMC,123519,V,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"
	rmcStillBody = "GPRMC,123520,A,4807.038,N,01131.000,E,000.0,084.4,230394,003.1,W"
	rmcSouthBody = "GPRMC,081836,A,3751.65,S,14507.36,E,000.0,360.0,130998,011.3,E"
)

func TestHandleSentenceRMC(t *testing.T) {
	l := NewNMEALocator(0, nil)
	var r recorder
	l.Watch(r.ok, r.fail, geo.Options{})

	l.HandleSentence(sentence(ggaBody) + "\r\n")
	l.HandleSentence(sentence(rmcBody))

	require.Len(t, r.positions, 1)
	p := r.positions[0]
	assert.InDelta(t, 48.1173, p.Latitude, 1e-4)
	assert.InDelta(t, 11.516667, p.Longitude, 1e-4)
	assert.InDelta(t, 545.4, p.Altitude, 1e-9)
	assert.InDelta(t, 0.9*uereMeters, p.Accuracy, 1e-9)
	require.NotNil(t, p.Heading)
	assert.InDelta(t, 84.4, *p.Heading, 1e-9)
	require.NotNil(t, p.Speed)
	assert.InDelta(t, 22.4*knotsToMS, *p.Speed, 1e-9)
	assert.Equal(t, time.Date(1994, time.March, 23, 12, 35, 19, 0, time.UTC), p.Timestamp)
}

func TestHandleSentenceStationaryHasNoHeading(t *testing.T) {
	l := NewNMEALocator(0, nil)
	var r recorder
	l.Watch(r.ok, r.fail, geo.Options{})

	l.HandleSentence(sentence(rmcStillBody))
	require.Len(t, r.positions, 1)
	assert.Nil(t, r.positions[0].Heading)
}

func TestHandleSentenceSouthernHemisphere(t *testing.T) {
	l := NewNMEALocator(0, nil)
	var r recorder
	l.Watch(r.ok, r.fail, geo.Options{})

	l.HandleSentence(sentence(rmcSouthBody))
	require.Len(t, r.positions, 1)
	assert.Less(t, r.positions[0].Latitude, 0.0)
	assert.Equal(t, 1998, r.positions[0].Timestamp.Year())
}

func TestHandleSentenceVoidFix(t *testing.T) {
	l := NewNMEALocator(0, nil)
	var r recorder
	l.Watch(r.ok, r.fail, geo.Options{})

	l.HandleSentence(sentence(rmcVoidBody))
	assert.Empty(t, r.positions)
	require.Len(t, r.errs, 1)
	assert.Equal(t, geo.PositionUnavailable, r.errs[0].Code)
}

func TestHandleSentenceIgnoresNoise(t *testing.T) {
	l := NewNMEALocator(0, nil)
	var r recorder
	l.Watch(r.ok, r.fail, geo.Options{})

	l.HandleSentence("")
	l.HandleSentence("garbage")
	l.HandleSentence("$GPRMC,broken*00")

	assert.Empty(t, r.positions)
	assert.Empty(t, r.errs)
}

func TestHighAccuracyUsesHDOP(t *testing.T) {
	l := NewNMEALocator(0.5, nil)
	var precise recorder
	l.Watch(precise.ok, precise.fail, geo.Options{EnableHighAccuracy: true})

	l.HandleSentence(sentence(ggaBody)) // HDOP 0.9
	l.HandleSentence(sentence(rmcBody))

	assert.Empty(t, precise.positions)
	require.Len(t, precise.errs, 1)
}

func TestReadStream(t *testing.T) {
	l := NewNMEALocator(0, nil)
	var r recorder
	var fixes []Fix
	l.OnFix = func(f Fix) { fixes = append(fixes, f) }
	l.Watch(r.ok, r.fail, geo.Options{})

	stream := strings.Join([]string{
		sentence(ggaBody),
		"noise",
		sentence(rmcBody),
		sentence(rmcStillBody),
	}, "\r\n")

	err := l.Read(context.Background(), strings.NewReader(stream))
	require.NoError(t, err)

	assert.Len(t, r.positions, 2)
	assert.Len(t, fixes, 2)
	// End of stream is reported as the position becoming unavailable.
	require.Len(t, r.errs, 1)
	assert.Equal(t, geo.PositionUnavailable, r.errs[0].Code)
}

func TestServeMissingPortDeniesRequests(t *testing.T) {
	l := NewNMEALocator(0, nil)
	err := l.Serve(context.Background(), "/dev/does-not-exist-whereiam", 9600)
	require.Error(t, err)

	var r recorder
	l.RequestOnce(r.ok, r.fail, geo.Options{})
	require.Len(t, r.errs, 1)
	assert.Equal(t, geo.PermissionDenied, r.errs[0].Code)
}
