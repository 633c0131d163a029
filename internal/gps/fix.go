package gps

import (
	"time"

	"github.com/relabs-tech/whereiam/internal/geo"
)

// knotsToMS converts speed over ground from knots to metres per second.
const knotsToMS = 0.514444

// uereMeters is the nominal user equivalent range error used to turn HDOP
// into a horizontal accuracy estimate.
const uereMeters = 5.0

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	Timestamp  time.Time `json:"timestamp"`
	Latitude   float64   `json:"lat"`         // decimal degrees
	Longitude  float64   `json:"lon"`         // decimal degrees
	SpeedKnots float64   `json:"speed_knots"` // speed over ground
	CourseDeg  float64   `json:"course_deg"`  // course over ground
	Altitude   float64   `json:"altitude"`    // metres above mean sea level, from GGA
	HDOP       float64   `json:"hdop"`        // from GGA, 0 when unknown
	Validity   string    `json:"validity"`    // "A" (valid) / "V" (void), etc.

	// CourseValid marks CourseDeg as a real heading even at zero speed.
	CourseValid bool `json:"course_valid,omitempty"`
}

// Valid reports whether the receiver marked the fix active.
func (f Fix) Valid() bool {
	return f.Validity == "A"
}

// Position converts the fix. Course becomes the heading while moving or
// when CourseValid is set; a stationary receiver reports noise.
func (f Fix) Position() geo.Position {
	p := geo.Position{
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
		Altitude:  f.Altitude,
		Speed:     geo.Float(f.SpeedKnots * knotsToMS),
		Timestamp: f.Timestamp,
	}
	if f.SpeedKnots > 0 || f.CourseValid {
		p.Heading = geo.Float(f.CourseDeg)
	}
	if f.HDOP > 0 {
		p.Accuracy = f.HDOP * uereMeters
	}
	return p
}

// FixFromPosition is the reverse of Position, for sources that produce
// positions but publish fixes. The fix is always marked valid.
func FixFromPosition(p geo.Position) Fix {
	f := Fix{
		Timestamp: p.Timestamp,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Altitude:  p.Altitude,
		HDOP:      p.Accuracy / uereMeters,
		Validity:  "A",
	}
	if p.Speed != nil {
		f.SpeedKnots = *p.Speed / knotsToMS
	}
	if p.Heading != nil {
		f.CourseDeg = *p.Heading
		f.CourseValid = true
	}
	return f
}
